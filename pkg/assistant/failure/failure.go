// Package failure carries the typed error taxonomy of a chat turn from the
// stage that failed up to the transport that reports it.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuth
	KindSession
	KindInvalidInput
	KindClassification
	KindUpstreamTransport
	KindUpstreamClient
	KindTimeout
	KindClientGone
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindSession:
		return "session"
	case KindInvalidInput:
		return "invalid_input"
	case KindClassification:
		return "classification"
	case KindUpstreamTransport:
		return "upstream_transport"
	case KindUpstreamClient:
		return "upstream_client"
	case KindTimeout:
		return "timeout"
	case KindClientGone:
		return "client_gone"
	default:
		return "internal"
	}
}

// User-facing texts. Internals never reach the client.
const (
	MessageTimeout      = "请求超时，请稍后再试。"
	MessageUnauthorized = "未授权，请检查您的登录状态。"
	MessageUnavailable  = "AI服务暂时不可用，请稍后再试。"
	MessageGeneric      = "抱歉，服务暂时不可用，请稍后再试。"
	MessageEmptyInput   = "消息内容不能为空"
	MessageSession      = "会话不存在或您没有访问权限"
)

type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failure in %s", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%s failure in %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// statusCarrier is satisfied by upstream HTTP errors.
type statusCarrier interface {
	HTTPStatus() int
}

// KindOf reports the kind of err. Deadline expiry always reads as a timeout,
// whichever stage produced it.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindClientGone
	}
	return KindInternal
}

func StageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}

// UserMessage maps err to the text shown in the error event.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindTimeout:
		return MessageTimeout
	case KindAuth:
		return MessageUnauthorized
	case KindInvalidInput:
		return MessageEmptyInput
	case KindSession:
		return MessageSession
	case KindUpstreamTransport:
		return MessageUnavailable
	case KindUpstreamClient:
		var sc statusCarrier
		if errors.As(err, &sc) {
			switch code := sc.HTTPStatus(); {
			case code == http.StatusUnauthorized || code == http.StatusForbidden:
				return MessageUnauthorized
			case code >= 500:
				return MessageUnavailable
			}
		}
		return MessageGeneric
	default:
		return MessageGeneric
	}
}
