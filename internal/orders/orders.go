// Package orders handles questions about orders that were already placed:
// listing them, canceling one and changing its delivery address. All of them
// act on behalf of the customer identified earlier in the conversation.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"orderbot/internal/model"
	"orderbot/internal/store"
)

// CustomerResolver finds the customer already identified in a session.
type CustomerResolver interface {
	CustomerFor(ctx context.Context, sessionID string) (*model.Customer, error)
}

type Service struct {
	catalog   store.Store
	customers CustomerResolver
	logger    *slog.Logger
}

func New(catalog store.Store, customers CustomerResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, customers: customers, logger: logger}
}

func (s *Service) customer(ctx context.Context, sessionID string) (*model.Customer, *model.Reply) {
	c, err := s.customers.CustomerFor(ctx, sessionID)
	if err != nil {
		r := model.FromError(err, "Sorry, I couldn't look up your account right now. Please try again.")
		return nil, &r
	}
	if c == nil {
		r := model.Fail(model.CodePrecondition,
			"Please identify yourself first by providing your email or phone number.")
		return nil, &r
	}
	return c, nil
}

func parseOrderID(raw string) (int64, bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

// Track lists the customer's orders, newest first.
func (s *Service) Track(ctx context.Context, sessionID string) model.Reply {
	c, fail := s.customer(ctx, sessionID)
	if fail != nil {
		return *fail
	}

	orders, err := s.catalog.CustomerOrders(ctx, model.OrderQuery{CustomerID: c.ID})
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your orders right now. Please try again.")
	}
	if len(orders) == 0 {
		return model.Say(fmt.Sprintf("%s, you don't have any orders yet.", c.Name))
	}

	lines := make([]string, len(orders))
	for i, o := range orders {
		lines[i] = fmt.Sprintf("- Order #%d (%s): %s, total %s, paid by %s, status: %s",
			o.ID, o.OrderDate.Format("2006-01-02"), o.ProductNames, model.FormatMoney(o.TotalAmount), o.PaymentMethod, o.Status)
	}
	return model.Say(fmt.Sprintf("Here are your orders, %s:\n%s", c.Name, strings.Join(lines, "\n")))
}

// Cancel deletes one of the customer's orders while it is still processing.
func (s *Service) Cancel(ctx context.Context, sessionID, rawOrderID string) model.Reply {
	orderID, ok := parseOrderID(rawOrderID)
	if !ok {
		return model.Fail(model.CodeValidation, "Please tell me the number of the order you want to cancel.")
	}
	c, fail := s.customer(ctx, sessionID)
	if fail != nil {
		return *fail
	}

	canceled, err := s.catalog.CancelOrder(ctx, orderID, c.ID)
	if err != nil {
		return model.FromError(err, fmt.Sprintf("Sorry, I couldn't cancel order #%d. Please try again.", orderID))
	}
	if !canceled {
		return model.Fail(model.CodePrecondition, fmt.Sprintf(
			"Order #%d can't be canceled. Only your orders that are still processing can be canceled.", orderID))
	}

	s.logger.Info("order canceled", "session_id", sessionID, "order_id", orderID, "customer_id", c.ID)
	return model.Say(fmt.Sprintf("Order #%d has been canceled and its items returned to stock.", orderID))
}

// ChangeAddress saves a new delivery address for an order that is still
// processing.
func (s *Service) ChangeAddress(ctx context.Context, sessionID, rawOrderID string, addr model.Address) model.Reply {
	orderID, ok := parseOrderID(rawOrderID)
	if !ok {
		return model.Fail(model.CodeValidation, "Please tell me the number of the order whose address you want to change.")
	}
	if missing := addr.MissingFields(); len(missing) > 0 {
		return model.Fail(model.CodeValidation,
			fmt.Sprintf("I still need the following for the new address: %s.", strings.Join(missing, ", ")))
	}
	c, fail := s.customer(ctx, sessionID)
	if fail != nil {
		return *fail
	}

	addr.IsDefault = false
	updated, err := s.catalog.UpdateOrderAddress(ctx, orderID, c.ID, addr)
	if err != nil {
		return model.FromError(err, fmt.Sprintf("Sorry, I couldn't update order #%d. Please try again.", orderID))
	}
	if !updated {
		return model.Fail(model.CodePrecondition, fmt.Sprintf(
			"The address of order #%d can't be changed. Only your orders that are still processing can be updated.", orderID))
	}

	return model.Say(fmt.Sprintf("Order #%d will now be delivered to:\n%s, %s\n%s, %s, %s %s", orderID,
		addr.ReceiverName, addr.ReceiverPhone, addr.City, addr.ProvinceState, addr.Country, addr.PostalCode))
}
