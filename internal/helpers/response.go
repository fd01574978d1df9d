package helpers

type ApiResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Offset    int               `json:"offset,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Total     int               `json:"total,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

func ValidationResponse(fields map[string]string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   "invalid input",
		Fields:  fields,
	}
}

func PaginatedResponse(data interface{}, offset, limit, total int) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Offset:  offset,
		Limit:   limit,
		Total:   total,
	}
}
