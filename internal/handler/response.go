package handler

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Warning interface{} `json:"warning,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

// NewSuccessResponseWithWarning carries a non-fatal diagnostic alongside an
// otherwise successful write.
func NewSuccessResponseWithWarning(data, warning interface{}) *Response {
	return &Response{
		Status:  "success",
		Data:    data,
		Warning: warning,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}
