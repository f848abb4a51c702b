package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/lambda-email-sender-go/internal/sender"
	"github.com/cruxstack/lambda-email-sender-go/internal/templates"
	"github.com/cruxstack/lambda-email-sender-go/internal/types"
)

const (
	MsgSent         = "Email sent successfully"
	MsgSentMocked   = "Email sent successfully (MOCKED)"
	MsgMockNote     = "This is a mock response for local development. No actual email was sent."
	MsgInvalidBody  = "Invalid request body"
	MsgEmailMissing = "Email address is required"
	MsgRejected     = "Email request rejected"
	MsgSendFailed   = "Failed to send email"
)

// EmailSender is the part of sender.Sender the handler depends on.
type EmailSender interface {
	Send(ctx context.Context, req *types.EmailRequest, meta sender.RequestMeta) (*sender.Result, error)
}

type Handler struct {
	Sender EmailSender
}

func New(s EmailSender) *Handler {
	return &Handler{Sender: s}
}

// Handle turns an api gateway proxy request into a response. The returned
// error is always nil; every failure is reported in the response.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic while handling request",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp = errorResponse(ctx, &ProviderError{Err: fmt.Errorf("%v", r)})
			err = nil
		}
	}()

	slog.InfoContext(ctx, "received request",
		"method", req.HTTPMethod,
		"path", req.Path,
		"request_id", req.RequestContext.RequestID,
	)
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		if dump, err := templates.Dump(req); err == nil {
			slog.DebugContext(ctx, "request event", "event", dump)
		}
	}

	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, types.ResponseBody{Message: "OK"}), nil
	}

	emailReq, perr := parseRequest(req)
	if perr != nil {
		return errorResponse(ctx, perr), nil
	}

	if verr := emailReq.Validate(); verr != nil {
		return errorResponse(ctx, &ValidationError{Message: MsgEmailMissing, Err: verr}), nil
	}

	meta := sender.RequestMeta{
		SourceIP:  req.RequestContext.Identity.SourceIP,
		UserAgent: req.RequestContext.Identity.UserAgent,
	}
	if meta.UserAgent == "" {
		meta.UserAgent = req.Headers["User-Agent"]
	}

	result, serr := h.Sender.Send(ctx, emailReq, meta)
	if serr != nil {
		if errors.Is(serr, sender.ErrRejected) {
			return errorResponse(ctx, &ValidationError{Message: MsgRejected, Err: serr}), nil
		}
		return errorResponse(ctx, &ProviderError{Err: serr}), nil
	}

	if result.Mocked {
		return respond(http.StatusOK, types.ResponseBody{
			Message:   MsgSentMocked,
			MessageID: result.MessageID,
			Recipient: result.Recipient,
			Note:      MsgMockNote,
		}), nil
	}

	return respond(http.StatusOK, types.ResponseBody{
		Code:      http.StatusOK,
		Message:   MsgSent,
		MessageID: result.MessageID,
		Recipient: result.Recipient,
	}), nil
}

func parseRequest(req events.APIGatewayProxyRequest) (*types.EmailRequest, error) {
	body := req.Body
	if req.IsBase64Encoded && body != "" {
		bs, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, &MalformedInputError{Err: fmt.Errorf("invalid base64 body: %w", err)}
		}
		body = string(bs)
	}

	emailReq, err := types.ParseEmailRequest(body)
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	return emailReq, nil
}

func errorResponse(ctx context.Context, err error) events.APIGatewayProxyResponse {
	status := statusOf(err)
	body := types.ResponseBody{Error: errorMessage(err)}

	var (
		verr *ValidationError
		merr *MalformedInputError
	)
	switch {
	case errors.As(err, &verr):
		body.Message = verr.Message
	case errors.As(err, &merr):
		body.Message = MsgInvalidBody
	default:
		body.Message = MsgSendFailed
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "error sending email", "error", err, "status", status)
	} else {
		slog.WarnContext(ctx, "rejected request", "error", err, "status", status)
	}

	return respond(status, body)
}

func respond(status int, body types.ResponseBody) events.APIGatewayProxyResponse {
	bs, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		bs = []byte(`{"message":"` + MsgSendFailed + `","error":"` + unknownError + `"}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    Headers(),
		Body:       string(bs),
	}
}

// Headers are attached to every response.
func Headers() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}
