// Package orders calls the external order-cancellation service and normalizes
// its outcome. The conversational contract has no separate error channel, so
// every outcome (success, rejection, transport failure) comes back as a
// user-facing Turkish message plus a structured audit record.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/observability"
)

// ActionName is the fixed action recorded in the audit trail.
const ActionName = "cancel_order"

// Audit captures one invocation of the cancellation service, successful or
// not. It is persisted for telemetry and returned in the chat response's
// tool_calls field.
type Audit struct {
	ToolName       string            `json:"tool_name"`
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method"`
	RequestData    map[string]string `json:"request_data"`
	ResponseStatus int               `json:"response_status,omitempty"`
	ResponseData   string            `json:"response_data,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// InvokerConfig configures the cancellation client.
type InvokerConfig struct {
	// BaseURL of the order service; POST {BaseURL}/cancel.
	BaseURL string
	// Timeout bounds each call. Defaults to 8s. Calls are never retried.
	Timeout time.Duration
}

// Invoker is the boundary client for the order-cancellation service.
type Invoker struct {
	cfg     InvokerConfig
	client  *http.Client
	replies config.Replies
}

// NewInvoker creates an Invoker. The replies table supplies the fixed
// success/failure/error message templates.
func NewInvoker(cfg InvokerConfig, replies config.Replies) *Invoker {
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Invoker{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		replies: replies,
	}
}

type cancelRequest struct {
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// Cancel calls POST {base}/cancel and maps the outcome to a user-facing
// message. A 204 No Content response is success; any other status is a
// rejection; a transport failure (timeout, connection refused) is reported as
// an error message. Cancel never fails past this boundary; the audit record
// carries the details either way.
func (inv *Invoker) Cancel(ctx context.Context, orderNumber, reason string) (string, Audit) {
	endpoint := inv.cfg.BaseURL + "/cancel"
	audit := Audit{
		ToolName:    ActionName,
		Endpoint:    endpoint,
		Method:      http.MethodPost,
		RequestData: map[string]string{"order_number": orderNumber, "reason": reason},
	}
	log := observability.WithTrace(ctx)

	body, err := json.Marshal(cancelRequest{OrderNumber: orderNumber, Reason: reason})
	if err != nil {
		audit.Error = err.Error()
		return fmt.Sprintf(inv.replies.CancelError, err.Error()), audit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		audit.Error = err.Error()
		return fmt.Sprintf(inv.replies.CancelError, err.Error()), audit
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.client.Do(req)
	if err != nil {
		audit.Error = err.Error()
		log.Warn("order cancel call failed", "order_number", orderNumber, "err", err)
		return fmt.Sprintf(inv.replies.CancelError, err.Error()), audit
	}
	defer resp.Body.Close()

	audit.ResponseStatus = resp.StatusCode
	if resp.StatusCode == http.StatusNoContent {
		audit.ResponseData = "Order cancelled successfully"
		log.Info("order cancelled", "order_number", orderNumber)
		return fmt.Sprintf(inv.replies.CancelSuccess, orderNumber, reason), audit
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	audit.ResponseData = string(raw)
	log.Warn("order cancel rejected", "order_number", orderNumber, "status", resp.StatusCode)
	return fmt.Sprintf(inv.replies.CancelFailure, resp.StatusCode, string(raw)), audit
}
