package routing

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	submissionController "github.com/submitd/submitd/internal/api/controllers/submission"
	apiSubmission "github.com/submitd/submitd/internal/api/models/submission"
	"github.com/submitd/submitd/internal/config"
	domainSubmission "github.com/submitd/submitd/internal/domain/submission"
)

var rootPath = "/submissions"
var idQueryKey = "id"

type SubmissionsRoutesHandler struct {
	AuthSettings *config.Auth
	Controller   submissionController.Controller
}

func (h *SubmissionsRoutesHandler) RegisterRoutes(ginEngine *gin.Engine) {
	routerGroup := NewTopLevelRoutesGroup(h.AuthSettings, ginEngine).Group(rootPath)
	routerGroup.POST("", h.submit)
	routerGroup.GET("", h.get)
}

// @Summary Submit one or more Submissions
// @ID create-submissions
// @Tags submissions
// @Description Runs a single Submission (JSON object) or a batch of Submissions (JSON array) through the ingestion pipeline
// @Accept  json
// @Produce  json
// @Param   newSubmission body submission.NewSubmission true "The request body; may also be an array of the same objects"
// @Success 200 {object} submission.SubmitResponse
// @Failure 400 {object} common.Body "Validation, content or duplicate rejection"
// @Failure 429 {object} common.Body "Rate limit exceeded"
// @Router /submissions [post]
func (h *SubmissionsRoutesHandler) submit(c *gin.Context) {
	bodyBytes, err := c.GetRawData()
	if err != nil {
		HandleJsonSerdesErr(c, err)
		return
	}
	// the submitter's user agent becomes the submission source in metadata
	source := domainSubmission.Source(c.Request.UserAgent())
	if isJsonArray(bodyBytes) {
		var batch []apiSubmission.NewSubmission
		if err := json.Unmarshal(bodyBytes, &batch); err != nil {
			HandleJsonSerdesErr(c, err)
			return
		}
		if response, apiErr := h.Controller.SubmitBatch(c.Request.Context(), batch, source); apiErr == nil {
			c.JSON(http.StatusOK, response)
		} else {
			c.JSON(apiErr.StatusCode, apiErr.Body)
		}
	} else {
		var newSubmission apiSubmission.NewSubmission
		if err := json.Unmarshal(bodyBytes, &newSubmission); err != nil {
			HandleJsonSerdesErr(c, err)
			return
		}
		if response, apiErr := h.Controller.Submit(c.Request.Context(), &newSubmission, source); apiErr == nil {
			c.JSON(http.StatusOK, response)
		} else {
			c.JSON(apiErr.StatusCode, apiErr.Body)
		}
	}
}

// @Summary Get Submissions
// @ID get-submissions
// @Tags submissions
// @Description Retrieves a single Submission by id, or lists all stored Submissions when no id is given
// @Accept  json
// @Produce  json
// @Param   id query string false "The id of a Submission"
// @Success 200 {object} submission.Submission
// @Failure 404 {object} common.Body "Submission does not exist"
// @Router /submissions [get]
func (h *SubmissionsRoutesHandler) get(c *gin.Context) {
	if idStr, present := c.GetQuery(idQueryKey); present {
		if retrieved, apiErr := h.Controller.Get(c.Request.Context(), domainSubmission.Id(idStr)); apiErr == nil {
			c.JSON(http.StatusOK, retrieved)
		} else {
			c.JSON(apiErr.StatusCode, apiErr.Body)
		}
	} else {
		if listed, apiErr := h.Controller.List(c.Request.Context()); apiErr == nil {
			c.JSON(http.StatusOK, listed)
		} else {
			c.JSON(apiErr.StatusCode, apiErr.Body)
		}
	}
}

// isJsonArray reports whether the body's first non-whitespace byte opens a
// JSON array. Deciding on the raw byte instead of unmarshalling twice keeps
// malformed bodies on the normal serdes error path.
func isJsonArray(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '['
		}
	}
	return false
}
