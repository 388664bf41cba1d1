// Package review runs the post-purchase review conversation: pick an
// unreviewed product, collect a rating and comment, confirm or edit, then
// submit. The unreviewed-product list is re-read from storage on every turn.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"orderbot/internal/model"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

// Dialog contexts emitted for the review flow.
const (
	ContextActive   = "submit_review_active"
	ContextConfirm  = "submit_review_confirm"
	ContextFinalize = "submit_review_finalize"

	contextLifespan = 5
)

// Draft is the in-progress review for one session.
type Draft struct {
	CustomerID        int64  `json:"customer_id"`
	ProductID         int64  `json:"product_id,omitempty"`
	ProductName       string `json:"product_name,omitempty"`
	Rating            int    `json:"rating,omitempty"`
	Comment           string `json:"comment,omitempty"`
	SubmittedReviewID int64  `json:"submitted_review_id,omitempty"`
}

// Params are the normalized parameters of one review turn.
type Params struct {
	Product        string
	Rating         string
	Comment        string
	InitialComment string
	NewRating      string
	NewComment     string
	Email          string
	Phone          string
}

// CustomerResolver finds the customer already identified in a session.
type CustomerResolver interface {
	CustomerFor(ctx context.Context, sessionID string) (*model.Customer, error)
}

type Config struct {
	// DefaultCustomerID is used when no customer can be identified. Zero
	// disables the fallback.
	DefaultCustomerID int64
}

// Service runs the review flow.
type Service struct {
	catalog   store.Store
	drafts    session.Store[Draft]
	customers CustomerResolver
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

func New(catalog store.Store, drafts session.Store[Draft], customers CustomerResolver, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:   catalog,
		drafts:    drafts,
		customers: customers,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

var ratingPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// parseRating extracts a whole 1-5 rating from text such as "4", "4 stars"
// or "4.0". Signed numbers are kept signed so "-3" is rejected.
func parseRating(s string) (int, bool) {
	m := ratingPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	n := int(f)
	return n, n >= 1 && n <= 5
}

func describe(p model.UnreviewedProduct) string {
	return fmt.Sprintf("%s (%s, %s brand, %s category)", p.Name, model.FormatMoney(p.Price), p.Brand, p.Category)
}

func describeAll(products []model.UnreviewedProduct) string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = describe(p)
	}
	return strings.Join(out, ", ")
}

func find(products []model.UnreviewedProduct, ref string) *model.UnreviewedProduct {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	id, _ := strconv.ParseInt(ref, 10, 64)
	for i := range products {
		if strings.EqualFold(products[i].Name, ref) || (id != 0 && products[i].ProductID == id) {
			return &products[i]
		}
	}
	return nil
}

func active(r model.Reply) model.Reply {
	return r.WithContext(ContextActive, contextLifespan)
}

func clearAll(r model.Reply) model.Reply {
	return r.WithContext(ContextActive, 0).WithContext(ContextConfirm, 0).WithContext(ContextFinalize, 0)
}

func (s *Service) draft(ctx context.Context, sessionID string) (Draft, error) {
	d, _, err := s.drafts.Get(ctx, sessionID)
	return d, err
}

func (s *Service) saveDraft(ctx context.Context, sessionID string, d Draft) error {
	return s.drafts.Upsert(ctx, sessionID, func(stored *Draft) error {
		*stored = d
		return nil
	})
}

func (s *Service) storeError(err error) model.Reply {
	return active(model.FromError(err, "Sorry, something went wrong with your review. Please try again, or say 'cancel' to exit."))
}

// resolveCustomer picks the reviewing customer: the draft's, then the
// session's identified customer, then the supplied email or phone, then the
// configured default.
func (s *Service) resolveCustomer(ctx context.Context, sessionID string, d Draft, p Params) (int64, error) {
	if d.CustomerID != 0 {
		return d.CustomerID, nil
	}
	if s.customers != nil {
		c, err := s.customers.CustomerFor(ctx, sessionID)
		if err != nil {
			return 0, err
		}
		if c != nil {
			return c.ID, nil
		}
	}
	if p.Email != "" || p.Phone != "" {
		c, err := s.catalog.CustomerByContact(ctx, p.Email, p.Phone)
		if err != nil {
			return 0, err
		}
		if c != nil {
			return c.ID, nil
		}
	}
	return s.cfg.DefaultCustomerID, nil
}

// turn loads the draft, the customer and the current unreviewed products.
type turn struct {
	draft      Draft
	unreviewed []model.UnreviewedProduct
}

func (s *Service) begin(ctx context.Context, sessionID string, p Params) (*turn, *model.Reply) {
	d, err := s.draft(ctx, sessionID)
	if err != nil {
		r := s.storeError(err)
		return nil, &r
	}

	customerID, err := s.resolveCustomer(ctx, sessionID, d, p)
	if err != nil {
		r := s.storeError(err)
		return nil, &r
	}
	if customerID == 0 {
		r := active(model.Fail(model.CodePrecondition,
			"Please tell me your email or phone number so I can find your purchases."))
		return nil, &r
	}
	d.CustomerID = customerID

	unreviewed, err := s.catalog.UnreviewedProducts(ctx, customerID)
	if err != nil {
		r := s.storeError(err)
		return nil, &r
	}
	return &turn{draft: d, unreviewed: unreviewed}, nil
}

func askRating(p model.UnreviewedProduct, comment string) string {
	text := fmt.Sprintf("For %s: would you like to give it a rating from 1 to 5 stars?", describe(p))
	if comment != "" {
		text += fmt.Sprintf(" Comment: %s.", comment)
	}
	return text + " Please confirm or add details and I'll submit the review for you, or say 'cancel' to exit."
}

// choose handles the turns that pick a product: start, continue, product
// confirmation and switching products.
func (s *Service) choose(ctx context.Context, sessionID string, p Params, intro string, requireProduct bool) model.Reply {
	t, fail := s.begin(ctx, sessionID, p)
	if fail != nil {
		return *fail
	}

	d := Draft{CustomerID: t.draft.CustomerID}
	if err := s.saveDraft(ctx, sessionID, d); err != nil {
		return s.storeError(err)
	}

	if len(t.unreviewed) == 0 {
		return model.Say("You have no delivered products left to review. Thanks for all your feedback!")
	}

	if p.Product == "" {
		if requireProduct {
			return active(model.Fail(model.CodeValidation, fmt.Sprintf(
				"Please specify a product to review from the list: %s, or say 'cancel' to exit.", describeAll(t.unreviewed))))
		}
		return active(model.Say(fmt.Sprintf(
			"%s here are your unreviewed products: %s. Which one would you like to review? Or say 'cancel' to exit.",
			intro, describeAll(t.unreviewed))))
	}

	chosen := find(t.unreviewed, p.Product)
	if chosen == nil {
		return active(model.Fail(model.CodeNotFound, fmt.Sprintf(
			"Sorry, %s is either not in your purchase history, has not been delivered yet, or has already been reviewed. "+
				"Please choose from: %s, or say 'cancel' to exit.", p.Product, describeAll(t.unreviewed))))
	}

	d.ProductID, d.ProductName, d.Comment = chosen.ProductID, chosen.Name, p.InitialComment
	if err := s.saveDraft(ctx, sessionID, d); err != nil {
		return s.storeError(err)
	}
	return active(model.Say(askRating(*chosen, d.Comment)))
}

// Start lists unreviewed products, or goes straight to the named one.
func (s *Service) Start(ctx context.Context, sessionID string, p Params) model.Reply {
	return s.choose(ctx, sessionID, p, "We'd love to hear your feedback! Based on your order history,", false)
}

// Continue starts another review after a submission.
func (s *Service) Continue(ctx context.Context, sessionID string, p Params) model.Reply {
	return s.choose(ctx, sessionID, p, "Great! Based on your order history,", false)
}

// ProductConfirm validates the named product against the unreviewed list.
func (s *Service) ProductConfirm(ctx context.Context, sessionID string, p Params) model.Reply {
	return s.choose(ctx, sessionID, p, "", true)
}

// SelectDifferentProduct switches the draft to another product, dropping the
// rating and comment collected so far.
func (s *Service) SelectDifferentProduct(ctx context.Context, sessionID string, p Params) model.Reply {
	return s.choose(ctx, sessionID, p, "No problem,", false)
}

// productFor resolves the product for detail turns: the named one, else the
// draft's.
func productFor(t *turn, p Params) (ref string, chosen *model.UnreviewedProduct) {
	ref = p.Product
	if ref == "" {
		ref = t.draft.ProductName
	}
	return ref, find(t.unreviewed, ref)
}

func (s *Service) notReviewable(ref string, t *turn) model.Reply {
	if ref == "" {
		return active(model.Fail(model.CodeValidation, fmt.Sprintf(
			"Please choose a product to review from: %s, or say 'cancel' to exit.", describeAll(t.unreviewed))))
	}
	return active(model.Fail(model.CodeNotFound, fmt.Sprintf(
		"Sorry, %s is either not in your purchase history or has not been delivered yet. Please choose from: %s, or say 'cancel' to exit.",
		ref, describeAll(t.unreviewed))))
}

func confirmText(prefix string, d Draft) string {
	comment := d.Comment
	if comment == "" {
		comment = "(none)"
	}
	return fmt.Sprintf("%s %s:\nRating: %d/5\nComment: %s\n", prefix, d.ProductName, d.Rating, comment)
}

// DetailsCollect records the rating and comment.
func (s *Service) DetailsCollect(ctx context.Context, sessionID string, p Params) model.Reply {
	t, fail := s.begin(ctx, sessionID, p)
	if fail != nil {
		return *fail
	}

	ref, chosen := productFor(t, p)
	if chosen == nil {
		return s.notReviewable(ref, t)
	}
	if strings.TrimSpace(p.Rating) == "" {
		return active(model.Fail(model.CodeValidation,
			fmt.Sprintf("Please provide a rating from 1 to 5 stars for %s, or say 'cancel' to exit.", chosen.Name)))
	}
	rating, ok := parseRating(p.Rating)
	if !ok {
		return active(model.Fail(model.CodeValidation,
			fmt.Sprintf("Please provide a valid rating from 1 to 5 stars for %s, or say 'cancel' to exit.", chosen.Name)))
	}

	d := t.draft
	d.ProductID, d.ProductName, d.Rating = chosen.ProductID, chosen.Name, rating
	if p.Comment != "" {
		d.Comment = p.Comment
	}
	if err := s.saveDraft(ctx, sessionID, d); err != nil {
		return s.storeError(err)
	}

	text := confirmText("Here's your review for", d) + "Would you like to edit your rating or comment? Or say 'submit it now' to proceed, or 'cancel' to exit."
	return model.Say(text).WithContext(ContextConfirm, contextLifespan)
}

// Edit overwrites the rating and comment with newly supplied values, falling
// back to the ones already collected.
func (s *Service) Edit(ctx context.Context, sessionID string, p Params) model.Reply {
	t, fail := s.begin(ctx, sessionID, p)
	if fail != nil {
		return *fail
	}

	ref, chosen := productFor(t, p)
	if chosen == nil {
		return s.notReviewable(ref, t)
	}

	d := t.draft
	d.ProductID, d.ProductName = chosen.ProductID, chosen.Name
	for _, raw := range []string{p.NewRating, p.Rating} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		rating, ok := parseRating(raw)
		if !ok {
			return active(model.Fail(model.CodeValidation,
				fmt.Sprintf("Please provide a valid rating from 1 to 5 stars for %s, or say 'cancel' to exit.", chosen.Name)))
		}
		d.Rating = rating
		break
	}
	if d.Rating == 0 {
		return active(model.Fail(model.CodeValidation,
			fmt.Sprintf("Please provide a rating from 1 to 5 stars for %s, or say 'cancel' to exit.", chosen.Name)))
	}
	switch {
	case p.NewComment != "":
		d.Comment = p.NewComment
	case p.Comment != "":
		d.Comment = p.Comment
	}

	if err := s.saveDraft(ctx, sessionID, d); err != nil {
		return s.storeError(err)
	}
	text := confirmText("I've updated your review for", d) + "Would you like to make more changes? Say 'submit it now' to proceed, or 'cancel' to exit."
	return model.Say(text).WithContext(ContextConfirm, contextLifespan)
}

// Submit re-validates the draft and persists the review.
func (s *Service) Submit(ctx context.Context, sessionID string, p Params) model.Reply {
	t, fail := s.begin(ctx, sessionID, p)
	if fail != nil {
		return *fail
	}

	d := t.draft
	if d.SubmittedReviewID != 0 {
		return model.Say(fmt.Sprintf("Your review for %s has already been submitted. "+
			"Would you like to review another product, or say 'cancel' to exit?", d.ProductName)).
			WithContext(ContextFinalize, contextLifespan)
	}

	ref, chosen := productFor(t, p)
	if chosen == nil {
		return s.notReviewable(ref, t)
	}
	if d.Rating == 0 {
		if rating, ok := parseRating(p.Rating); ok {
			d.Rating = rating
		}
	}
	if d.Rating == 0 {
		return active(model.Fail(model.CodeValidation, fmt.Sprintf(
			"Sorry, I couldn't submit the review for %s. Please provide a rating from 1 to 5 stars, or say 'cancel' to exit.",
			chosen.Name)))
	}

	id, err := s.catalog.InsertReview(ctx, model.NewReview{
		CustomerID: d.CustomerID,
		ProductID:  chosen.ProductID,
		Rating:     d.Rating,
		Comment:    d.Comment,
	})
	if err != nil {
		return model.FromError(err, "Sorry, I couldn't save your review. Please try again, or say 'cancel' to exit.").
			WithContext(ContextConfirm, contextLifespan)
	}

	d.ProductID, d.ProductName, d.SubmittedReviewID = chosen.ProductID, chosen.Name, id
	if err := s.saveDraft(ctx, sessionID, d); err != nil {
		s.logger.Error("recording submitted review failed", "session_id", sessionID, "review_id", id, "error", err)
	}
	s.logger.Info("review submitted", "session_id", sessionID, "review_id", id, "product_id", chosen.ProductID)

	text := confirmText("Perfect! Here's the review for", d) +
		fmt.Sprintf("Review date: %s\n", s.now().Format("2006-01-02")) +
		"I've submitted your review and it will appear on the product page soon. Would you like to review another product, or say 'cancel' to exit?"
	return model.Say(text).WithContext(ContextFinalize, contextLifespan)
}

// End closes the review flow and clears its contexts.
func (s *Service) End(ctx context.Context, sessionID string) model.Reply {
	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		return s.storeError(err)
	}
	return clearAll(model.Say("Thank you for your feedback! Let me know if there's anything else I can help with."))
}

// Cancel abandons the review. A review submitted in this conversation is
// deleted again.
func (s *Service) Cancel(ctx context.Context, sessionID string) model.Reply {
	d, err := s.draft(ctx, sessionID)
	if err != nil {
		return s.storeError(err)
	}

	text := "Your review has been canceled. Let me know if there's anything else I can help with."
	if d.SubmittedReviewID != 0 {
		if err := s.catalog.DeleteReview(ctx, d.SubmittedReviewID); err != nil {
			return model.FromError(err, "Sorry, I couldn't withdraw your review. Please try again.")
		}
		text = fmt.Sprintf("I've withdrawn your review for %s. Let me know if there's anything else I can help with.", d.ProductName)
	}

	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		return s.storeError(err)
	}
	return clearAll(model.Say(text))
}
