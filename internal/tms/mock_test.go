package tms

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

// mockRepository is an in-memory Repository and TxRepository. Writes made
// inside a failed transaction are discarded.
type mockRepository struct {
	parties   map[int64]*Party
	tokens    map[int64]*Token
	challans  map[int64]*Challan
	links     map[int64][]int64
	payments  []Payment
	sequences map[string]int64
	nextID    int64
	commits   int
	rollbacks int

	// Error injection
	nextNumberErr    error
	insertTokenErr   error
	insertChallanErr error
	loadTokenErr     error
	listTokensErr    error
	listPaymentsErr  error
}

type mockState struct {
	parties   map[int64]Party
	tokens    map[int64]Token
	challans  map[int64]Challan
	links     map[int64][]int64
	payments  []Payment
	sequences map[string]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		parties:   make(map[int64]*Party),
		tokens:    make(map[int64]*Token),
		challans:  make(map[int64]*Challan),
		links:     make(map[int64][]int64),
		sequences: make(map[string]int64),
	}
}

func (m *mockRepository) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockRepository) save() *mockState {
	s := &mockState{
		parties:   make(map[int64]Party),
		tokens:    make(map[int64]Token),
		challans:  make(map[int64]Challan),
		links:     make(map[int64][]int64),
		payments:  append([]Payment(nil), m.payments...),
		sequences: make(map[string]int64),
	}
	for k, v := range m.parties {
		s.parties[k] = *v
	}
	for k, v := range m.tokens {
		s.tokens[k] = *v
	}
	for k, v := range m.challans {
		s.challans[k] = *v
	}
	for k, v := range m.links {
		s.links[k] = append([]int64(nil), v...)
	}
	for k, v := range m.sequences {
		s.sequences[k] = v
	}
	return s
}

func (m *mockRepository) restore(s *mockState) {
	m.parties = make(map[int64]*Party)
	for k, v := range s.parties {
		v := v
		m.parties[k] = &v
	}
	m.tokens = make(map[int64]*Token)
	for k, v := range s.tokens {
		v := v
		m.tokens[k] = &v
	}
	m.challans = make(map[int64]*Challan)
	for k, v := range s.challans {
		v := v
		m.challans[k] = &v
	}
	m.links = s.links
	m.payments = s.payments
	m.sequences = s.sequences
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	state := m.save()
	if err := fn(ctx, m); err != nil {
		m.restore(state)
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// seedParty stores a party outside any transaction.
func (m *mockRepository) seedParty(name string) *Party {
	p := &Party{ID: m.id(), Name: name}
	m.parties[p.ID] = p
	return p
}

// seedToken stores a token outside any transaction.
func (m *mockRepository) seedToken(no string, party *Party, status TokenStatus, created time.Time, amount int64) *Token {
	t := &Token{
		ID:          m.id(),
		TokenNo:     no,
		CreatedAt:   created,
		PartyID:     party.ID,
		PartyName:   party.Name,
		TotalAmount: d(amount),
		Status:      status,
	}
	m.tokens[t.ID] = t
	return t
}

// ============================================================================
// READS
// ============================================================================

func (m *mockRepository) ListParties(context.Context) ([]Party, error) {
	var out []Party
	for _, p := range m.parties {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) GetPartyByName(_ context.Context, name string) (*Party, error) {
	for _, p := range m.parties {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) GetToken(_ context.Context, tokenNo string) (*Token, error) {
	for _, t := range m.tokens {
		if t.TokenNo == tokenNo {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) ListTokens(_ context.Context, f TokenFilter) ([]Token, error) {
	if m.listTokensErr != nil {
		return nil, m.listTokensErr
	}
	var out []Token
	for _, t := range m.tokens {
		day := dateOnly(t.CreatedAt)
		switch {
		case f.OpenOnly && t.Status == StatusDelivered:
		case f.PartyID != 0 && t.PartyID != f.PartyID:
		case f.Status != "" && t.Status != f.Status:
		case f.From != nil && day.Before(*f.From):
		case f.To != nil && day.After(*f.To):
		default:
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) GetChallan(_ context.Context, challanNo string) (*Challan, error) {
	for _, c := range m.challans {
		if c.ChallanNo == challanNo {
			cp := *c
			for _, id := range m.links[c.ID] {
				cp.Tokens = append(cp.Tokens, *m.tokens[id])
			}
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) ListChallans(_ context.Context, f ChallanFilter) ([]Challan, error) {
	var out []Challan
	for _, c := range m.challans {
		if f.Day == nil || dateOnly(c.CreatedAt).Equal(*f.Day) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) ListConsignments(_ context.Context, truck string) ([]Consignment, error) {
	var out []Consignment
	for _, c := range m.challans {
		if truck != "" && !strings.Contains(strings.ToUpper(c.TruckNo), strings.ToUpper(truck)) {
			continue
		}
		for _, id := range m.links[c.ID] {
			t := m.tokens[id]
			out = append(out, Consignment{
				ChallanNo:   c.ChallanNo,
				TruckNo:     c.TruckNo,
				TokenNo:     t.TokenNo,
				PartyName:   t.PartyName,
				Weight:      t.Weight,
				TotalAmount: t.TotalAmount,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenNo < out[j].TokenNo })
	return out, nil
}

func (m *mockRepository) ListPayments(_ context.Context, partyID int64) ([]Payment, error) {
	if m.listPaymentsErr != nil {
		return nil, m.listPaymentsErr
	}
	var out []Payment
	for _, p := range m.payments {
		if p.PartyID == partyID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ============================================================================
// WRITES
// ============================================================================

func (m *mockRepository) NextNumber(_ context.Context, kind string) (int64, error) {
	if m.nextNumberErr != nil {
		return 0, m.nextNumberErr
	}
	m.sequences[kind]++
	return m.sequences[kind], nil
}

func (m *mockRepository) UpsertParty(_ context.Context, p Party) (int64, error) {
	for _, existing := range m.parties {
		if existing.Name == p.Name {
			p.ID = existing.ID
			*existing = p
			return p.ID, nil
		}
	}
	p.ID = m.id()
	m.parties[p.ID] = &p
	return p.ID, nil
}

func (m *mockRepository) InsertToken(_ context.Context, t Token) (int64, error) {
	if m.insertTokenErr != nil {
		return 0, m.insertTokenErr
	}
	t.ID = m.id()
	m.tokens[t.ID] = &t
	return t.ID, nil
}

func (m *mockRepository) InsertChallan(_ context.Context, c Challan) (int64, error) {
	if m.insertChallanErr != nil {
		return 0, m.insertChallanErr
	}
	c.ID = m.id()
	c.Tokens = nil
	m.challans[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) InsertPayment(_ context.Context, p Payment) (int64, error) {
	p.ID = m.id()
	m.payments = append(m.payments, p)
	return p.ID, nil
}

func (m *mockRepository) LockTokens(_ context.Context, tokenNos []string) ([]Token, error) {
	want := make(map[string]bool, len(tokenNos))
	for _, no := range tokenNos {
		want[no] = true
	}
	var out []Token
	for _, t := range m.tokens {
		if want[t.TokenNo] {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) LoadToken(_ context.Context, challanID, tokenID int64) error {
	if m.loadTokenErr != nil {
		return m.loadTokenErr
	}
	t, ok := m.tokens[tokenID]
	if !ok {
		return ErrNotFound
	}
	m.links[challanID] = append(m.links[challanID], tokenID)
	id := challanID
	t.ChallanID = &id
	t.Status = StatusLoaded
	return nil
}

func (m *mockRepository) MarkDelivered(_ context.Context, tokenID int64, date time.Time, receiver string) error {
	t, ok := m.tokens[tokenID]
	if !ok {
		return ErrNotFound
	}
	t.Status = StatusDelivered
	t.DeliveryDate = &date
	t.Receiver = receiver
	return nil
}
