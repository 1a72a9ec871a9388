package tms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transport-challan-ledger/internal/normalize"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
)

// Service implements the booking, loading, payment and delivery workflow.
type Service struct {
	repo     Repository
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a token service.
func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		log:      log,
		validate: types.Validator(),
		now:      time.Now,
	}
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func formatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ============================================================================
// PARTIES
// ============================================================================

// AddParty creates a party, or replaces the one with the same name.
func (s *Service) AddParty(ctx context.Context, in PartyInput) (*Party, error) {
	in.Name = normalize.CleanFreeText(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	p := Party{
		Name:        in.Name,
		Address:     strings.TrimSpace(in.Address),
		Mobile:      strings.TrimSpace(in.Mobile),
		GST:         strings.ToUpper(strings.TrimSpace(in.GST)),
		Marka:       strings.TrimSpace(in.Marka),
		DefaultRate: in.DefaultRate,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.UpsertParty(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert party: %w", err)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("party saved", "party", p.Name, "id", p.ID)
	return &p, nil
}

// ListParties returns every party by name.
func (s *Service) ListParties(ctx context.Context) ([]Party, error) {
	return s.repo.ListParties(ctx)
}

func (s *Service) party(ctx context.Context, name string) (*Party, error) {
	p, err := s.repo.GetPartyByName(ctx, normalize.CleanFreeText(name))
	if err != nil {
		return nil, fmt.Errorf("party %q: %w", name, err)
	}
	return p, nil
}

// ============================================================================
// TOKENS
// ============================================================================

// CreateToken books a consignment and assigns the next TN- number.
func (s *Service) CreateToken(ctx context.Context, in TokenInput) (*Token, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	party, err := s.party(ctx, in.Party)
	if err != nil {
		return nil, err
	}

	tok := Token{
		CreatedAt:     s.now(),
		PartyID:       party.ID,
		PartyName:     party.Name,
		Marka:         strings.TrimSpace(in.Marka),
		Weight:        in.Weight,
		RatePerKg:     in.RatePerKg,
		RatePerParcel: in.RatePerParcel,
		TotalAmount:   TokenAmount(in.Weight, in.RatePerKg, in.RatePerParcel),
		FromCity:      normalize.CleanCity(in.FromCity),
		ToCity:        normalize.CleanCity(in.ToCity),
		Status:        StatusBooked,
		Remark:        strings.TrimSpace(in.Remark),
	}
	if tok.Marka == "" {
		tok.Marka = party.Marka
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n, err := tx.NextNumber(ctx, SeqToken)
		if err != nil {
			return fmt.Errorf("next token number: %w", err)
		}
		tok.TokenNo = formatNumber("TN", n)
		id, err := tx.InsertToken(ctx, tok)
		if err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		tok.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("token booked", "token", tok.TokenNo, "party", tok.PartyName, "amount", tok.TotalAmount.StringFixed(2))
	return &tok, nil
}

// GetToken retrieves a token by number.
func (s *Service) GetToken(ctx context.Context, tokenNo string) (*Token, error) {
	t, err := s.repo.GetToken(ctx, strings.TrimSpace(tokenNo))
	if err != nil {
		return nil, fmt.Errorf("token %q: %w", tokenNo, err)
	}
	return t, nil
}

// ListTokens returns all tokens, or only those not yet delivered.
func (s *Service) ListTokens(ctx context.Context, openOnly bool) ([]Token, error) {
	return s.repo.ListTokens(ctx, TokenFilter{OpenOnly: openOnly})
}

// ============================================================================
// CHALLANS
// ============================================================================

// CreateChallan loads booked tokens onto a truck under the next CH- number.
// Every token must exist and be Booked; otherwise nothing is written.
func (s *Service) CreateChallan(ctx context.Context, in ChallanInput) (*Challan, error) {
	in.TruckNo = normalize.CleanFreeText(in.TruckNo)
	if err := s.check(in); err != nil {
		return nil, err
	}

	wanted := make([]string, 0, len(in.TokenNos))
	seen := make(map[string]bool, len(in.TokenNos))
	for _, no := range in.TokenNos {
		no = strings.TrimSpace(no)
		if !seen[no] {
			seen[no] = true
			wanted = append(wanted, no)
		}
	}

	c := Challan{
		CreatedAt:    s.now(),
		TruckNo:      in.TruckNo,
		DriverName:   normalize.CleanPersonName(in.DriverName),
		DriverMobile: strings.TrimSpace(in.DriverMobile),
		Origin:       normalize.CleanCity(in.Origin),
		Destination:  normalize.CleanCity(in.Destination),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tokens, err := tx.LockTokens(ctx, wanted)
		if err != nil {
			return fmt.Errorf("lock tokens: %w", err)
		}
		found := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			found[t.TokenNo] = true
			if !t.Status.CanTransition(StatusLoaded) {
				return fmt.Errorf("token %s is %s: %w", t.TokenNo, t.Status, ErrInvalidStatus)
			}
		}
		var missing []string
		for _, no := range wanted {
			if !found[no] {
				missing = append(missing, no)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("tokens %s: %w", strings.Join(missing, ", "), ErrNotFound)
		}

		n, err := tx.NextNumber(ctx, SeqChallan)
		if err != nil {
			return fmt.Errorf("next challan number: %w", err)
		}
		c.ChallanNo = formatNumber("CH", n)
		if c.ID, err = tx.InsertChallan(ctx, c); err != nil {
			return fmt.Errorf("insert challan: %w", err)
		}

		for _, t := range tokens {
			if err := tx.LoadToken(ctx, c.ID, t.ID); err != nil {
				return fmt.Errorf("load token %s: %w", t.TokenNo, err)
			}
			id := c.ID
			t.Status = StatusLoaded
			t.ChallanID = &id
			c.Tokens = append(c.Tokens, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("challan created", "challan", c.ChallanNo, "truck", c.TruckNo, "tokens", len(c.Tokens))
	return &c, nil
}

// GetChallan retrieves a challan with its tokens.
func (s *Service) GetChallan(ctx context.Context, challanNo string) (*Challan, error) {
	c, err := s.repo.GetChallan(ctx, strings.TrimSpace(challanNo))
	if err != nil {
		return nil, fmt.Errorf("challan %q: %w", challanNo, err)
	}
	return c, nil
}

// ============================================================================
// PAYMENTS AND DELIVERY
// ============================================================================

// AddPayment records money received from a party.
func (s *Service) AddPayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	party, err := s.party(ctx, in.Party)
	if err != nil {
		return nil, err
	}

	p := Payment{
		PartyID: party.ID,
		Amount:  in.Amount,
		Method:  in.Method,
		Date:    dateOnly(in.Date),
		Remark:  strings.TrimSpace(in.Remark),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPayment(ctx, p)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment recorded", "party", party.Name, "amount", p.Amount.StringFixed(2), "method", p.Method)
	return &p, nil
}

// MarkDelivered closes a Booked or Loaded token.
func (s *Service) MarkDelivered(ctx context.Context, in DeliveryInput) (*Token, error) {
	in.TokenNo = strings.TrimSpace(in.TokenNo)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var tok Token
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tokens, err := tx.LockTokens(ctx, []string{in.TokenNo})
		if err != nil {
			return fmt.Errorf("lock token: %w", err)
		}
		if len(tokens) == 0 {
			return fmt.Errorf("token %s: %w", in.TokenNo, ErrNotFound)
		}
		tok = tokens[0]
		if !tok.Status.CanTransition(StatusDelivered) {
			return fmt.Errorf("token %s is %s: %w", tok.TokenNo, tok.Status, ErrInvalidStatus)
		}

		date := dateOnly(in.Date)
		receiver := strings.TrimSpace(in.Receiver)
		if err := tx.MarkDelivered(ctx, tok.ID, date, receiver); err != nil {
			return fmt.Errorf("mark delivered: %w", err)
		}
		tok.Status = StatusDelivered
		tok.DeliveryDate = &date
		tok.Receiver = receiver
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("token delivered", "token", tok.TokenNo, "receiver", tok.Receiver)
	return &tok, nil
}

// ============================================================================
// LEDGER AND INVOICE
// ============================================================================

func sumTokens(tokens []Token) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(t.TotalAmount)
	}
	return total
}

func (s *Service) ledger(ctx context.Context, party Party) (*PartyLedger, error) {
	tokens, err := s.repo.ListTokens(ctx, TokenFilter{PartyID: party.ID})
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, party.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	charges := sumTokens(tokens)
	return &PartyLedger{
		Party:         party,
		Tokens:        tokens,
		Payments:      payments,
		TotalCharges:  charges,
		TotalPayments: paid,
		Balance:       charges.Sub(paid),
	}, nil
}

// PartyLedger returns a party's tokens and payments; the balance is the
// token total less the payment total.
func (s *Service) PartyLedger(ctx context.Context, partyName string) (*PartyLedger, error) {
	party, err := s.party(ctx, partyName)
	if err != nil {
		return nil, err
	}
	return s.ledger(ctx, *party)
}

// OutstandingReport returns every party's ledger balance.
func (s *Service) OutstandingReport(ctx context.Context) ([]OutstandingRow, error) {
	parties, err := s.repo.ListParties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	rows := make([]OutstandingRow, 0, len(parties))
	for _, p := range parties {
		l, err := s.ledger(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("party %q: %w", p.Name, err)
		}
		rows = append(rows, OutstandingRow{Party: p.Name, Outstanding: l.Balance})
	}
	return rows, nil
}

// Invoice lists a party's tokens created between from and to, inclusive.
func (s *Service) Invoice(ctx context.Context, partyName string, from, to time.Time) (*Invoice, error) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: invoice range ends before it starts", ErrInvalidInput)
	}
	party, err := s.party(ctx, partyName)
	if err != nil {
		return nil, err
	}
	tokens, err := s.repo.ListTokens(ctx, TokenFilter{PartyID: party.ID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return &Invoice{
		Party:  *party,
		From:   from,
		To:     to,
		Tokens: tokens,
		Total:  sumTokens(tokens),
	}, nil
}
