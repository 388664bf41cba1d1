package checkout

import (
	"context"
	"fmt"
	"strings"

	"orderbot/internal/model"
	"orderbot/internal/session"
)

// Dialog context activated while the user re-enters a shipping address.
const contextNewAddress = "awaiting_new_address"

// IdentifyCustomer looks the customer up by email or phone and stores the
// contact details of the stored customer row, creating the session if needed.
func (s *Service) IdentifyCustomer(ctx context.Context, sessionID, email, phone string) model.Reply {
	email, phone = strings.TrimSpace(email), strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return model.Fail(model.CodeValidation, "Please provide your email or phone number so I can find your account.")
	}

	c, err := s.catalog.CustomerByContact(ctx, email, phone)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't look up your account right now. Please try again.")
	}
	if c == nil {
		return model.Fail(model.CodeNotFound,
			"I couldn't find an account with that email or phone number. Please check it and try again.")
	}

	if err := s.save(ctx, sessionID, func(r *session.Record) {
		r.Customer = &session.CustomerInfo{Email: c.Email, Phone: c.Phone}
	}); err != nil {
		return s.sessionError(err)
	}

	return model.Say(fmt.Sprintf("I found your account:\nName: %s\nEmail: %s\nPhone: %s\nIs this information correct?",
		c.Name, c.Email, c.Phone))
}

// customer re-resolves the identified customer from the stored contact details.
func (s *Service) customer(ctx context.Context, rec *session.Record) (*model.Customer, *model.Reply) {
	if rec == nil || rec.Customer == nil {
		r := model.Fail(model.CodePrecondition, "Please provide your email or phone number first so I can find your account.")
		return nil, &r
	}
	c, err := s.catalog.CustomerByContact(ctx, rec.Customer.Email, rec.Customer.Phone)
	if err != nil {
		r := model.FromError(err, "Sorry, I couldn't look up your account right now. Please try again.")
		return nil, &r
	}
	if c == nil {
		r := model.Fail(model.CodeNotFound, "I couldn't find your account anymore. Please provide your email or phone number again.")
		return nil, &r
	}
	return c, nil
}

// CustomerFor returns the identified customer of sessionID, or nil.
func (s *Service) CustomerFor(ctx context.Context, sessionID string) (*model.Customer, error) {
	rec, err := s.Session(ctx, sessionID)
	if err != nil || rec == nil || rec.Customer == nil {
		return nil, err
	}
	return s.catalog.CustomerByContact(ctx, rec.Customer.Email, rec.Customer.Phone)
}

// ConfirmCustomerInfo presents the default address once the user confirms
// the account details, or asks for corrected details otherwise.
func (s *Service) ConfirmCustomerInfo(ctx context.Context, sessionID, confirmation string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	c, fail := s.customer(ctx, rec)
	if fail != nil {
		return *fail
	}

	if !isAffirmative(confirmation) {
		return model.Say("No problem. Please provide your correct email or phone number.")
	}

	addr, err := s.catalog.DefaultAddress(ctx, c.ID)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your address right now. Please try again.")
	}
	if addr == nil {
		return model.Say(fmt.Sprintf("Thanks, %s! You don't have a default shipping address yet. "+
			"Please provide the receiver's name, phone number, country, city, province/state and postal code.", c.Name))
	}
	return model.Say(fmt.Sprintf("Thanks, %s! Your default shipping address is:\n%s\n"+
		"Would you like to use this address or enter a new one?", c.Name, renderAddress(*addr)))
}

// UseDefaultAddress ships to the customer's default address.
func (s *Service) UseDefaultAddress(ctx context.Context, sessionID string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	c, fail := s.customer(ctx, rec)
	if fail != nil {
		return *fail
	}

	addr, err := s.catalog.DefaultAddress(ctx, c.ID)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load your address right now. Please try again.")
	}
	if addr == nil {
		return model.Fail(model.CodeNotFound,
			"You don't have a default shipping address. Please provide a new shipping address.")
	}
	addr.IsDefault = true

	if err := s.save(ctx, sessionID, func(r *session.Record) { r.Address = addr }); err != nil {
		return s.sessionError(err)
	}
	return s.promptShipping(ctx, fmt.Sprintf("Great, I'll ship your order to:\n%s\n", renderAddress(*addr)))
}

// RequestNewAddress prompts for a new shipping address.
func (s *Service) RequestNewAddress(context.Context, string) model.Reply {
	return model.Say("Sure. Please provide the receiver's name, phone number, country, city, province/state and postal code.").
		WithContext(contextNewAddress, 2)
}

// ProcessNewAddress saves a complete new address and makes it the shipping
// address for this order.
func (s *Service) ProcessNewAddress(ctx context.Context, sessionID string, addr model.Address) model.Reply {
	if missing := addr.MissingFields(); len(missing) > 0 {
		return model.Fail(model.CodeValidation,
			fmt.Sprintf("I still need the following to save your address: %s.", strings.Join(missing, ", "))).
			WithContext(contextNewAddress, 2)
	}

	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	c, fail := s.customer(ctx, rec)
	if fail != nil {
		return *fail
	}

	addr.IsDefault = false
	id, err := s.catalog.SaveAddress(ctx, c.ID, addr)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't save your address. Please try again.")
	}
	addr.ID = id

	if err := s.save(ctx, sessionID, func(r *session.Record) { r.Address = &addr }); err != nil {
		return s.sessionError(err)
	}
	return model.Say(fmt.Sprintf("I've saved this shipping address:\n%s\n"+
		"Is this correct? Say 'yes' to continue or 'edit' to enter it again.", renderAddress(addr)))
}

// ConfirmNewAddress either restarts address entry or moves on to shipping.
func (s *Service) ConfirmNewAddress(ctx context.Context, sessionID, confirmation string) model.Reply {
	rec, err := s.Session(ctx, sessionID)
	if err != nil {
		return s.sessionError(err)
	}
	if rec == nil || rec.Address == nil {
		return model.Fail(model.CodePrecondition, "Please provide a shipping address first.")
	}

	switch {
	case wantsEdit(confirmation):
		r := model.Say("Okay, let's enter it again. Please provide the receiver's name, phone number, country, city, province/state and postal code.")
		return r.WithContext(contextNewAddress, 2)
	case isAffirmative(confirmation):
		return s.promptShipping(ctx, "Great, your shipping address is confirmed.\n").
			WithContext(contextNewAddress, 0)
	default:
		return model.Fail(model.CodeValidation, "Please say 'yes' to confirm the address or 'edit' to change it.")
	}
}

func (s *Service) promptShipping(ctx context.Context, prefix string) model.Reply {
	methods, err := s.catalog.ShippingMethods(ctx)
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't load shipping methods right now. Please try again.")
	}
	return model.Say(prefix + "Please choose a shipping method: " + renderShippingMethods(methods) + ".")
}
