// MCP transport for the order bot using the official MCP Go SDK.
// Exposes the conversation and catalog lookups as MCP tools so agents can
// drive the same flows as the dialog webhook.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"orderbot/internal/dialog"
	"orderbot/internal/model"
)

// === MCP Tool Input/Output Types ===
// Amounts are rendered as strings; structured outputs carry no decimal or
// time values so their schemas stay plain.

// HandleIntentInput is the input schema for the handle_intent tool.
type HandleIntentInput struct {
	SessionID  string         `json:"session_id" jsonschema:"conversation id; turns with the same id share checkout state"`
	Intent     string         `json:"intent" jsonschema:"intent name such as confirm_order or submit_review_start"`
	Text       string         `json:"text,omitempty" jsonschema:"raw user utterance, used by yes/no steps"`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"intent parameters as the dialog platform would send them"`
}

// GetSessionInput is the input schema for the get_session tool.
type GetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation id"`
}

// SessionOutput summarizes a checkout session.
type SessionOutput struct {
	SessionID      string       `json:"session_id"`
	Stage          string       `json:"stage"`
	Lines          []LineOutput `json:"lines"`
	CustomerEmail  string       `json:"customer_email,omitempty"`
	CustomerPhone  string       `json:"customer_phone,omitempty"`
	Address        string       `json:"address,omitempty"`
	ShippingMethod string       `json:"shipping_method,omitempty"`
	ShippingFee    string       `json:"shipping_fee,omitempty"`
	PaymentMethod  string       `json:"payment_method,omitempty"`
	PromoCode      string       `json:"promo_code,omitempty"`
	Discount       string       `json:"discount,omitempty"`
	PlacedOrderID  int64        `json:"placed_order_id,omitempty"`
	Missing        []string     `json:"missing,omitempty"`
}

type LineOutput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// SearchProductsInput is the input schema for the search_products tool.
type SearchProductsInput struct {
	Search   string `json:"search,omitempty" jsonschema:"text matched against product name and description"`
	Category string `json:"category,omitempty" jsonschema:"exact category name"`
	MinPrice string `json:"min_price,omitempty" jsonschema:"lowest price, inclusive"`
	MaxPrice string `json:"max_price,omitempty" jsonschema:"highest price, inclusive"`
}

type SearchProductsOutput struct {
	Products []ProductOutput `json:"products"`
}

type ProductOutput struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Category    string   `json:"category,omitempty"`
	Stock       int      `json:"stock"`
	Rating      *float64 `json:"rating,omitempty"`
}

// NewMCPServer creates an MCP server with the order bot tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "orderbot",
			Version: h.version,
		},
		&mcp.ServerOptions{
			Instructions: "Order bot - conversational shopping. Use handle_intent to drive checkout, review " +
				"and order intents for a session, get_session to inspect checkout progress and " +
				"search_products to browse the catalog.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handle_intent",
		Description: "Run one conversation turn for a session and return the bot's reply.",
	}, h.mcpHandleIntent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the product catalog by text, category and price.",
	}, h.mcpSearchProducts)

	if h.sessions != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_session",
			Description: "Get the checkout progress of a session.",
		}, h.mcpGetSession)
	}

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpHandleIntent(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input HandleIntentInput,
) (*mcp.CallToolResult, model.Reply, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, model.Reply{}, fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(input.Intent) == "" {
		return nil, model.Reply{}, fmt.Errorf("intent is required")
	}

	reply := h.conversation.Dispatch(ctx, input.Intent, dialog.Turn{
		SessionID: input.SessionID,
		Text:      input.Text,
		Params:    dialog.Params(input.Parameters),
	})
	return nil, reply, nil
}

func (h *Handler) mcpGetSession(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetSessionInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, SessionOutput{}, fmt.Errorf("session_id is required")
	}

	rec, err := h.sessions.Session(ctx, input.SessionID)
	if err != nil {
		return nil, SessionOutput{}, h.mcpError(err)
	}
	if rec == nil {
		return nil, SessionOutput{}, fmt.Errorf("%s: session not found", model.CodeNotFound)
	}

	out := SessionOutput{
		SessionID:     input.SessionID,
		Stage:         string(rec.Stage()),
		Lines:         make([]LineOutput, len(rec.Lines)),
		PaymentMethod: rec.PaymentMethod,
		PlacedOrderID: rec.PlacedOrderID,
		Missing:       rec.MissingForPlacement(),
	}
	for i, l := range rec.Lines {
		out.Lines[i] = LineOutput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	if rec.Customer != nil {
		out.CustomerEmail, out.CustomerPhone = rec.Customer.Email, rec.Customer.Phone
	}
	if a := rec.Address; a != nil {
		out.Address = fmt.Sprintf("%s, %s, %s, %s, %s %s",
			a.ReceiverName, a.ReceiverPhone, a.City, a.ProvinceState, a.Country, a.PostalCode)
	}
	if rec.Shipping != nil {
		out.ShippingMethod, out.ShippingFee = rec.Shipping.MethodName, model.FormatMoney(rec.Shipping.Fee)
	}
	if rec.Discount != nil {
		out.PromoCode, out.Discount = rec.Discount.PromoCode, model.FormatMoney(rec.Discount.Amount)
	}
	return nil, out, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, SearchProductsOutput, error) {
	filter := model.ProductFilter{Search: input.Search, Category: input.Category}
	for _, b := range []struct {
		raw string
		dst **decimal.Decimal
	}{{input.MinPrice, &filter.MinPrice}, {input.MaxPrice, &filter.MaxPrice}} {
		if strings.TrimSpace(b.raw) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(b.raw), "$"))
		if err != nil || d.IsNegative() {
			return nil, SearchProductsOutput{}, fmt.Errorf("%s: invalid price %q", model.CodeValidation, b.raw)
		}
		*b.dst = &d
	}

	products, err := h.catalog.SearchProducts(ctx, filter)
	if err != nil {
		return nil, SearchProductsOutput{}, h.mcpError(err)
	}

	out := SearchProductsOutput{Products: make([]ProductOutput, len(products))}
	for i, p := range products {
		out.Products[i] = ProductOutput{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Category:    p.Category,
			Stock:       p.Stock,
			Rating:      p.Rating,
		}
	}
	return nil, out, nil
}

// mcpError converts store errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := model.AsAPIError(err); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
