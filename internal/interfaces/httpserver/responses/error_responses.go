package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuchat/docuchat/internal/utils/platformerrors"
)

// ErrorResponse carries the user-facing detail message plus platform error
// metadata. Clients consume the detail field verbatim.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps domain errors onto HTTP responses with a detail body.
func HandleError(reqCtx *gin.Context, err error, fallback string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		detail := platformErr.Message
		if detail == "" {
			detail = fallback
		}
		reqCtx.AbortWithStatusJSON(
			platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType()),
			ErrorResponse{
				Detail:    detail,
				Code:      platformErr.GetUUID(),
				RequestID: platformErr.GetRequestID(),
			},
		)
		return
	}

	detail := fallback
	if err != nil {
		detail = err.Error()
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: detail})
}

// HandleNewError creates a typed error at the route layer and responds with it.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, detail string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, detail, nil)
	reqCtx.AbortWithStatusJSON(
		platformerrors.ErrorTypeToHTTPStatus(errorType),
		ErrorResponse{
			Detail:    detail,
			Code:      err.GetUUID(),
			RequestID: err.GetRequestID(),
		},
	)
}
