package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperifyio/materialbox/internal/export"
	"github.com/hyperifyio/materialbox/internal/ingest"
	"github.com/hyperifyio/materialbox/internal/store"
)

// apiError carries the HTTP status and client-facing message of a failure.
type apiError struct {
	Code    int
	Message string
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *apiError) Unwrap() error { return e.Err }

func newAPIError(code int, message string, err error) *apiError {
	return &apiError{Code: code, Message: message, Err: err}
}

// Client-facing messages.
const (
	msgNotFound      = "文章不存在"
	msgEmptyChat     = "内容不能为空"
	msgDocMissing    = "抱歉，找不到当前正在阅读的素材，无法回答。"
	msgBadRequest    = "请求格式错误"
	msgMissingFile   = "缺少上传文件"
	msgTooLarge      = "文件过大，上限为 %d 字节"
	msgFontRequired  = "未配置中文字体（-pdf.font），无法导出该素材的 PDF"
	msgInternalError = "服务器内部错误"
)

// mapError converts domain errors into API errors.
func mapError(err error) *apiError {
	if err == nil {
		return nil
	}
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, msgNotFound, err)
	case errors.Is(err, export.ErrFontRequired):
		return newAPIError(http.StatusUnprocessableEntity, msgFontRequired, err)
	case errors.Is(err, ingest.ErrNothingExtracted):
		return newAPIError(http.StatusOK, ingest.ErrNothingExtracted.Error(), err)
	}
	return newAPIError(http.StatusInternalServerError, msgInternalError, err)
}
