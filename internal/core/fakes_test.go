package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pegumax/student-suite-backend/internal/ai"
	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/iap"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// In-memory fakes for the repository and gateway interfaces. Each fake keeps
// a call log where tests assert on ordering or counts.

type fakeUserRepo struct {
	users map[string]*models.User

	getErr       error
	createErr    error
	redeemResult bool
	redeemErr    error

	createdIDs       []string
	stripeRoles      map[string]string
	recursiveDeletes []string
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:       make(map[string]*models.User),
		stripeRoles: make(map[string]string),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.users[user.ID] = user
	r.createdIDs = append(r.createdIDs, user.ID)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SetStripeRole(ctx context.Context, userID, role string) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.StripeRole = role
	r.stripeRoles[userID] = role
	return nil
}

func (r *fakeUserRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.StripeCustomerID = customerID
	return nil
}

func (r *fakeUserRepo) SetStripeSubscription(ctx context.Context, userID, subscriptionID string) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.StripeSubscriptionID = subscriptionID
	return nil
}

func (r *fakeUserRepo) SetIAPSubscription(ctx context.Context, userID, subscriptionID string, expiry time.Time) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.IAPRole = models.RolePro
	user.IAPSubscriptionID = subscriptionID
	user.IAPExpiryDate = expiry
	return nil
}

func (r *fakeUserRepo) ClearIAPSubscription(ctx context.Context, userID string) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.IAPRole = models.RoleFree
	user.IAPSubscriptionID = ""
	user.IAPExpiryDate = time.Time{}
	return nil
}

func (r *fakeUserRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	for _, user := range r.users {
		if user.StripeCustomerID == customerID {
			return user, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) FindByReferralPrefix(ctx context.Context, prefix string) (*models.User, error) {
	for _, user := range r.users {
		if user.UIDPrefix == prefix {
			return user, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) RedeemReferral(ctx context.Context, referrerID, subscriberID string) (bool, error) {
	if r.redeemErr != nil {
		return false, r.redeemErr
	}
	return r.redeemResult, nil
}

func (r *fakeUserRepo) MarkReferralCredited(ctx context.Context, userID string) error {
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.ReferralCreditGiven = true
	return nil
}

func (r *fakeUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeUserRepo) RecursiveDelete(ctx context.Context, userID string) error {
	delete(r.users, userID)
	r.recursiveDeletes = append(r.recursiveDeletes, userID)
	return nil
}

type fakeUsageRepo struct {
	entries map[string]*models.MonthlyUsage

	getErr       error
	incrementErr error
	increments   []models.UsageDelta
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{entries: make(map[string]*models.MonthlyUsage)}
}

func usageKey(userID, monthKey string) string {
	return userID + "/" + monthKey
}

func (r *fakeUsageRepo) Get(ctx context.Context, userID, monthKey string) (*models.MonthlyUsage, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	entry, ok := r.entries[usageKey(userID, monthKey)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return entry, nil
}

func (r *fakeUsageRepo) Increment(ctx context.Context, userID, monthKey string, delta models.UsageDelta) error {
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.increments = append(r.increments, delta)
	key := usageKey(userID, monthKey)
	entry, ok := r.entries[key]
	if !ok {
		entry = &models.MonthlyUsage{}
		r.entries[key] = entry
	}
	entry.Requests++
	entry.InputTokens += delta.InputTokens
	entry.OutputTokens += delta.OutputTokens
	entry.Cost += delta.Cost
	return nil
}

type fakeMetadataRepo struct {
	userCount int64
	cutoff    int64
	err       error
}

func (r *fakeMetadataRepo) AssignFounder(ctx context.Context, userID string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	isFounder := r.userCount < r.cutoff
	r.userCount++
	return isFounder, nil
}

type fakeClaimWriter struct {
	claims map[string]bool
	calls  int
	err    error
}

func newFakeClaimWriter() *fakeClaimWriter {
	return &fakeClaimWriter{claims: make(map[string]bool)}
}

func (w *fakeClaimWriter) SetProClaim(ctx context.Context, userID string, isPro bool) error {
	if w.err != nil {
		return w.err
	}
	w.claims[userID] = isPro
	w.calls++
	return nil
}

type fakeGateway struct {
	customerID string
	sessionURL string
	portalURL  string

	createCustomerErr error
	checkoutErr       error
	portalErr         error
	cancelErr         error
	creditErr         error
	webhookEvent      *WebhookEvent
	webhookErr        error

	createdCustomers []string
	canceledSubs     []string
	credits          []int64
	creditCustomers  []string
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	if g.createCustomerErr != nil {
		return "", g.createCustomerErr
	}
	g.createdCustomers = append(g.createdCustomers, userID)
	return g.customerID, nil
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	if g.checkoutErr != nil {
		return "", g.checkoutErr
	}
	return g.sessionURL, nil
}

func (g *fakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if g.portalErr != nil {
		return "", g.portalErr
	}
	return g.portalURL, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.canceledSubs = append(g.canceledSubs, subscriptionID)
	return nil
}

func (g *fakeGateway) CreditCustomerBalance(ctx context.Context, customerID string, amountCents int64, description string) error {
	if g.creditErr != nil {
		return g.creditErr
	}
	g.creditCustomers = append(g.creditCustomers, customerID)
	g.credits = append(g.credits, amountCents)
	return nil
}

func (g *fakeGateway) ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.webhookEvent, nil
}

type fakeJournal struct {
	checkouts []string
	portals   []string
	commands  []string
	err       error
}

func (j *fakeJournal) RecordCheckoutSession(ctx context.Context, userID, priceID, sessionURL, errMsg string) error {
	if j.err != nil {
		return j.err
	}
	j.checkouts = append(j.checkouts, fmt.Sprintf("%s|%s|%s", userID, sessionURL, errMsg))
	return nil
}

func (j *fakeJournal) RecordPortalLink(ctx context.Context, userID, portalURL, errMsg string) error {
	if j.err != nil {
		return j.err
	}
	j.portals = append(j.portals, fmt.Sprintf("%s|%s|%s", userID, portalURL, errMsg))
	return nil
}

func (j *fakeJournal) RecordCommand(ctx context.Context, userID, command string) error {
	if j.err != nil {
		return j.err
	}
	j.commands = append(j.commands, fmt.Sprintf("%s|%s", userID, command))
	return nil
}

type fakeAppleVerifier struct {
	sub   *iap.Subscription
	err   error
	calls int
}

func (v *fakeAppleVerifier) Verify(ctx context.Context, receiptData string, sandbox bool) (*iap.Subscription, error) {
	v.calls++
	return v.sub, v.err
}

type fakeGoogleVerifier struct {
	sub   *iap.Subscription
	err   error
	calls int
}

func (v *fakeGoogleVerifier) Verify(ctx context.Context, subscriptionID, purchaseToken string) (*iap.Subscription, error) {
	v.calls++
	return v.sub, v.err
}

type fakeImageStore struct {
	err     error
	deleted []string
}

func (s *fakeImageStore) Delete(ctx context.Context, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, userID)
	return nil
}

type fakeFeedbackRepo struct {
	created []*models.Feedback
	err     error
}

func (r *fakeFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.created = append(r.created, feedback)
	return fmt.Sprintf("fb-%d", len(r.created)), nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

// fakeBackend is a scripted ai.TextBackend for failover tests.
type fakeBackend struct {
	name       string
	model      string
	completion *ai.Completion
	err        error
	calls      int
}

func (b *fakeBackend) Generate(ctx context.Context, prompt string) (*ai.Completion, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.completion, nil
}

func (b *fakeBackend) Name() string  { return b.name }
func (b *fakeBackend) Model() string { return b.model }

var errBoom = errors.New("boom")
