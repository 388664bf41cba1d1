package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"orderbot/internal/browse"
	"orderbot/internal/checkout"
	"orderbot/internal/model"
	"orderbot/internal/orders"
	"orderbot/internal/review"
	"orderbot/internal/session"
)

// Turn is one user utterance routed to an intent handler.
type Turn struct {
	SessionID string
	Text      string
	Params    Params
}

// confirmation is the text a yes/no step inspects: an explicit parameter
// when the agent extracted one, else the raw utterance.
func (t Turn) confirmation() string {
	if c := t.Params.Get("confirmation"); c != "" {
		return c
	}
	return t.Text
}

// HandlerFunc answers one intent.
type HandlerFunc func(ctx context.Context, t Turn) model.Reply

// Services are the conversation services the dispatcher routes to. Nil
// services leave their intents unregistered.
type Services struct {
	Checkout *checkout.Service
	Review   *review.Service
	Browse   *browse.Service
	Orders   *orders.Service
}

// Dispatcher routes intents to handlers. Turns of the same session are
// serialized so read-modify-write cycles on session state never interleave.
type Dispatcher struct {
	routes   map[string]HandlerFunc
	locks    *session.Locker
	checkout *checkout.Service
	logger   *slog.Logger
}

func NewDispatcher(svc Services, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		routes:   make(map[string]HandlerFunc),
		locks:    session.NewLocker(),
		checkout: svc.Checkout,
		logger:   logger,
	}
	if svc.Checkout != nil {
		d.registerCheckout(svc.Checkout)
	}
	if svc.Review != nil {
		d.registerReview(svc.Review)
	}
	if svc.Browse != nil {
		d.registerBrowse(svc.Browse)
	}
	if svc.Orders != nil {
		d.registerOrders(svc.Orders)
	}
	return d
}

// Register adds or replaces the handler for intent.
func (d *Dispatcher) Register(intent string, h HandlerFunc) {
	d.routes[intent] = h
}

// Intents lists the registered intent names in order.
func (d *Dispatcher) Intents() []string {
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle answers a webhook request.
func (d *Dispatcher) Handle(ctx context.Context, req *WebhookRequest) *WebhookResponse {
	sessionID := req.SessionID()
	intent := req.QueryResult.Intent.DisplayName
	if sessionID == "" {
		d.logger.Warn("webhook request without session", "intent", intent)
		return NewResponse(req, model.Fail(model.CodeValidation,
			"Sorry, I couldn't identify this conversation. Please start again."))
	}

	reply := d.Dispatch(ctx, intent, Turn{
		SessionID: sessionID,
		Text:      req.QueryResult.QueryText,
		Params:    req.QueryResult.Parameters,
	})
	return NewResponse(req, reply)
}

// Dispatch runs the handler for intent while holding the session lock.
func (d *Dispatcher) Dispatch(ctx context.Context, intent string, t Turn) model.Reply {
	h, ok := d.routes[intent]
	if !ok {
		d.logger.Warn("unknown intent", "intent", intent, "session_id", t.SessionID)
		return model.Fail(model.CodeValidation, fmt.Sprintf("Sorry, I don't understand the intent '%s'. Please try again.", intent))
	}
	if t.Params == nil {
		t.Params = Params{}
	}

	start := time.Now()
	unlock := d.locks.Lock(t.SessionID)
	reply := h(ctx, t)
	stage := d.stage(ctx, t.SessionID)
	unlock()

	level := slog.LevelInfo
	if !reply.OK() {
		level = slog.LevelWarn
	}
	d.logger.Log(ctx, level, "intent handled",
		"intent", intent,
		"session_id", t.SessionID,
		"stage", stage,
		"code", reply.Code,
		"duration", time.Since(start),
	)
	return reply
}

func (d *Dispatcher) stage(ctx context.Context, sessionID string) session.Stage {
	if d.checkout == nil {
		return session.StageEmpty
	}
	rec, err := d.checkout.Session(ctx, sessionID)
	if err != nil {
		return session.StageEmpty
	}
	return rec.Stage()
}

// refs prefers explicit product ids over product names.
func refs(p Params) []string {
	if ids := p.List("product_id"); len(ids) > 0 {
		return ids
	}
	return p.List("product")
}

func (d *Dispatcher) registerCheckout(c *checkout.Service) {
	d.Register("confirm_order", func(ctx context.Context, t Turn) model.Reply {
		return c.AddToCart(ctx, t.SessionID, checkout.CartRequest{
			Products:   t.Params.List("product"),
			Quantities: t.Params.List("number"),
		})
	})
	d.Register("update_order", func(ctx context.Context, t Turn) model.Reply {
		return c.SetLineQuantities(ctx, t.SessionID, checkout.CartRequest{
			Products:   refs(t.Params),
			Quantities: t.Params.List("number"),
		})
	})
	d.Register("remove_items", func(ctx context.Context, t Turn) model.Reply {
		return c.RemoveItems(ctx, t.SessionID, refs(t.Params))
	})
	d.Register("proceed_to_checkout", func(ctx context.Context, t Turn) model.Reply {
		return c.ProceedToCheckout(ctx, t.SessionID)
	})
	d.Register("apply_coupon_code", func(ctx context.Context, t Turn) model.Reply {
		return c.ApplyCoupon(ctx, t.SessionID, t.Params.Get("coupon_code"))
	})
	d.Register("identify_customer", func(ctx context.Context, t Turn) model.Reply {
		return c.IdentifyCustomer(ctx, t.SessionID, t.Params.Get("email"), t.Params.Get("phone-number"))
	})
	d.Register("confirm_customer_info", func(ctx context.Context, t Turn) model.Reply {
		return c.ConfirmCustomerInfo(ctx, t.SessionID, t.confirmation())
	})
	d.Register("use_default_address", func(ctx context.Context, t Turn) model.Reply {
		return c.UseDefaultAddress(ctx, t.SessionID)
	})
	d.Register("request_new_shipping_address", func(ctx context.Context, t Turn) model.Reply {
		return c.RequestNewAddress(ctx, t.SessionID)
	})
	d.Register("process_new_shipping_address", func(ctx context.Context, t Turn) model.Reply {
		return c.ProcessNewAddress(ctx, t.SessionID, t.Params.Address())
	})
	d.Register("confirm_new_address", func(ctx context.Context, t Turn) model.Reply {
		return c.ConfirmNewAddress(ctx, t.SessionID, t.confirmation())
	})
	d.Register("confirm_shipping_method", func(ctx context.Context, t Turn) model.Reply {
		return c.ConfirmShippingMethod(ctx, t.SessionID, t.Params.Get("shipping_method"))
	})
	d.Register("select_payment_method", func(ctx context.Context, t Turn) model.Reply {
		return c.SelectPaymentMethod(ctx, t.SessionID, t.Params.Get("payment_method"))
	})
	d.Register("confirm_order_placement", func(ctx context.Context, t Turn) model.Reply {
		return c.ConfirmOrderPlacement(ctx, t.SessionID)
	})
	d.Register("end_conversation", func(ctx context.Context, t Turn) model.Reply {
		return c.EndConversation(ctx, t.SessionID)
	})
	d.Register("cancel_order", func(ctx context.Context, t Turn) model.Reply {
		return c.CancelOrder(ctx, t.SessionID)
	})
}

func reviewParams(p Params) review.Params {
	return review.Params{
		Product:        p.Get("product"),
		Rating:         p.Get("rating"),
		Comment:        p.Get("comment"),
		InitialComment: p.Get("initial_comment"),
		NewRating:      p.Get("new_rating"),
		NewComment:     p.Get("new_comment"),
		Email:          p.Get("email"),
		Phone:          p.Get("phone-number"),
	}
}

func (d *Dispatcher) registerReview(r *review.Service) {
	withParams := map[string]func(context.Context, string, review.Params) model.Reply{
		"submit_review_start":                    r.Start,
		"submit_review_product_confirm":          r.ProductConfirm,
		"submit_review_details_collect":          r.DetailsCollect,
		"submit_review_edit":                     r.Edit,
		"submit_review_submit":                   r.Submit,
		"submit_review_continue":                 r.Continue,
		"submit_review_select_different_product": r.SelectDifferentProduct,
	}
	for intent, fn := range withParams {
		d.Register(intent, func(ctx context.Context, t Turn) model.Reply {
			return fn(ctx, t.SessionID, reviewParams(t.Params))
		})
	}
	d.Register("submit_review_end", func(ctx context.Context, t Turn) model.Reply {
		return r.End(ctx, t.SessionID)
	})
	d.Register("submit_review_cancel", func(ctx context.Context, t Turn) model.Reply {
		return r.Cancel(ctx, t.SessionID)
	})
}

func (d *Dispatcher) registerBrowse(b *browse.Service) {
	d.Register("search_products_by_brand", func(ctx context.Context, t Turn) model.Reply {
		return b.ByBrand(ctx, t.Params.Get("brand"))
	})
	d.Register("search_products_by_price", func(ctx context.Context, t Turn) model.Reply {
		return b.ByPrice(ctx, t.Params.Get("brand"), t.Params.Get("price_range"), t.Params.List("price"))
	})
	d.Register("product_details", func(ctx context.Context, t Turn) model.Reply {
		return b.Details(ctx, t.Params.Get("product_id"), t.Params.Get("product"))
	})
	d.Register("cheapest_product", func(ctx context.Context, t Turn) model.Reply {
		return b.Cheapest(ctx)
	})
}

func (d *Dispatcher) registerOrders(o *orders.Service) {
	d.Register("track_orders", func(ctx context.Context, t Turn) model.Reply {
		return o.Track(ctx, t.SessionID)
	})
	d.Register("cancel_placed_order", func(ctx context.Context, t Turn) model.Reply {
		return o.Cancel(ctx, t.SessionID, t.Params.Get("order_id"))
	})
	d.Register("change_order_address", func(ctx context.Context, t Turn) model.Reply {
		return o.ChangeAddress(ctx, t.SessionID, t.Params.Get("order_id"), t.Params.Address())
	})
}
