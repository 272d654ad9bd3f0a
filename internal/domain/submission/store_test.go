package submission

import (
	"testing"
)

func TestNotFound_Error(t *testing.T) {
	tests := []struct {
		name string
		id   Id
		want string
	}{
		{
			name: "error string",
			id:   "some id",
			want: "No submission found with id [some id]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NotFound{ID: tt.id}
			if got := e.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFound_Id(t *testing.T) {
	e := NotFound{ID: "hello"}
	if got := e.Id(); got != "hello" {
		t.Errorf("Id() = %v, want %v", got, "hello")
	}
}

func TestAlreadyExists_Error(t *testing.T) {
	tests := []struct {
		name string
		id   Id
		want string
	}{
		{
			name: "error string",
			id:   "abc123",
			want: "Submission with id [abc123] already exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := AlreadyExists{ID: tt.id}
			if got := e.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlreadyExists_Id(t *testing.T) {
	e := AlreadyExists{ID: "abc123"}
	if got := e.Id(); got != "abc123" {
		t.Errorf("Id() = %v, want %v", got, "abc123")
	}
}

func TestInvalidPersistedData_Error(t *testing.T) {
	e := InvalidPersistedData{PersistedData: "wat"}
	if got := e.Error(); got != "Invalid persisted data [wat]" {
		t.Errorf("Error() = %v", got)
	}
}
