package tms

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginjaninja78/transport-challan-ledger/internal/platform/db"
)

//go:embed schema.sql
var schemaSQL string

// Repository is the read side of the token store plus a transaction scope
// for writes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	ListParties(ctx context.Context) ([]Party, error)
	GetPartyByName(ctx context.Context, name string) (*Party, error)

	GetToken(ctx context.Context, tokenNo string) (*Token, error)
	ListTokens(ctx context.Context, filter TokenFilter) ([]Token, error)

	GetChallan(ctx context.Context, challanNo string) (*Challan, error)
	ListChallans(ctx context.Context, filter ChallanFilter) ([]Challan, error)
	ListConsignments(ctx context.Context, truck string) ([]Consignment, error)

	ListPayments(ctx context.Context, partyID int64) ([]Payment, error)
}

// TxRepository exposes the writes available inside a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, kind string) (int64, error)

	UpsertParty(ctx context.Context, p Party) (int64, error)
	InsertToken(ctx context.Context, t Token) (int64, error)
	InsertChallan(ctx context.Context, c Challan) (int64, error)
	InsertPayment(ctx context.Context, p Payment) (int64, error)

	LockTokens(ctx context.Context, tokenNos []string) ([]Token, error)
	LoadToken(ctx context.Context, challanID, tokenID int64) error
	MarkDelivered(ctx context.Context, tokenID int64, date time.Time, receiver string) error
}

// PGRepository is the PostgreSQL backed token store.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Migrate creates the token tables when they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("tms: migrate: %w", err)
	}
	return nil
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ============================================================================
// PARTIES
// ============================================================================

const partyColumns = `id, name, address, mobile, gst, marka, default_rate`

func scanParty(row pgx.Row) (*Party, error) {
	var p Party
	if err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Mobile, &p.GST, &p.Marka, &p.DefaultRate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListParties returns every party ordered by name.
func (r *PGRepository) ListParties(ctx context.Context) ([]Party, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+partyColumns+` FROM parties ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, *p)
	}
	return parties, rows.Err()
}

// GetPartyByName looks a party up by its unique name.
func (r *PGRepository) GetPartyByName(ctx context.Context, name string) (*Party, error) {
	return scanParty(r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE name = $1`, name))
}

// UpsertParty inserts a party or replaces the one with the same name.
func (t *txRepo) UpsertParty(ctx context.Context, p Party) (int64, error) {
	query := `
		INSERT INTO parties (name, address, mobile, gst, marka, default_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			address = EXCLUDED.address,
			mobile = EXCLUDED.mobile,
			gst = EXCLUDED.gst,
			marka = EXCLUDED.marka,
			default_rate = EXCLUDED.default_rate
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query, p.Name, p.Address, p.Mobile, p.GST, p.Marka, p.DefaultRate).Scan(&id)
	return id, err
}

// ============================================================================
// TOKENS
// ============================================================================

const tokenSelect = `
	SELECT t.id, t.token_no, t.created_at, t.party_id, p.name, t.marka,
	       t.weight, t.rate_per_kg, t.rate_per_parcel, t.total_amount,
	       t.from_city, t.to_city, t.status, t.delivery_date,
	       COALESCE(t.receiver, ''), t.remark, t.challan_id
	FROM tokens t
	JOIN parties p ON p.id = t.party_id
`

func scanToken(row pgx.Row) (*Token, error) {
	var t Token
	err := row.Scan(
		&t.ID, &t.TokenNo, &t.CreatedAt, &t.PartyID, &t.PartyName, &t.Marka,
		&t.Weight, &t.RatePerKg, &t.RatePerParcel, &t.TotalAmount,
		&t.FromCity, &t.ToCity, &t.Status, &t.DeliveryDate,
		&t.Receiver, &t.Remark, &t.ChallanID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func collectTokens(rows pgx.Rows) ([]Token, error) {
	defer rows.Close()
	var tokens []Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// GetToken retrieves a token by number.
func (r *PGRepository) GetToken(ctx context.Context, tokenNo string) (*Token, error) {
	return scanToken(r.pool.QueryRow(ctx, tokenSelect+` WHERE t.token_no = $1`, tokenNo))
}

// ListTokens returns tokens matching filter, oldest first.
func (r *PGRepository) ListTokens(ctx context.Context, filter TokenFilter) ([]Token, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.OpenOnly {
		add("t.status <> $%d", StatusDelivered)
	}
	if filter.PartyID != 0 {
		add("t.party_id = $%d", filter.PartyID)
	}
	if filter.Status != "" {
		add("t.status = $%d", filter.Status)
	}
	if filter.From != nil {
		add("t.created_at::date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("t.created_at::date <= $%d", *filter.To)
	}

	query := tokenSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at, t.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

// InsertToken stores a new token.
func (t *txRepo) InsertToken(ctx context.Context, tok Token) (int64, error) {
	query := `
		INSERT INTO tokens (
			token_no, created_at, party_id, marka, weight, rate_per_kg,
			rate_per_parcel, total_amount, from_city, to_city, status, remark
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		tok.TokenNo, tok.CreatedAt, tok.PartyID, tok.Marka, tok.Weight, tok.RatePerKg,
		tok.RatePerParcel, tok.TotalAmount, tok.FromCity, tok.ToCity, tok.Status, tok.Remark,
	).Scan(&id)
	return id, err
}

// LockTokens selects the named tokens FOR UPDATE. Unknown numbers are
// simply absent from the result.
func (t *txRepo) LockTokens(ctx context.Context, tokenNos []string) ([]Token, error) {
	rows, err := t.tx.Query(ctx, tokenSelect+` WHERE t.token_no = ANY($1) ORDER BY t.id FOR UPDATE OF t`, tokenNos)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

// LoadToken links a token to a challan and marks it loaded.
func (t *txRepo) LoadToken(ctx context.Context, challanID, tokenID int64) error {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO challan_tokens (challan_id, token_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		challanID, tokenID,
	); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE tokens SET challan_id = $1, status = $2 WHERE id = $3`,
		challanID, StatusLoaded, tokenID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered records delivery of a token.
func (t *txRepo) MarkDelivered(ctx context.Context, tokenID int64, date time.Time, receiver string) error {
	var recv any
	if receiver != "" {
		recv = receiver
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE tokens SET status = $1, delivery_date = $2, receiver = $3 WHERE id = $4`,
		StatusDelivered, date, recv, tokenID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// CHALLANS
// ============================================================================

const challanColumns = `id, challan_no, created_at, truck_no, driver_name, driver_mobile, origin, destination`

func scanChallan(row pgx.Row) (*Challan, error) {
	var c Challan
	err := row.Scan(&c.ID, &c.ChallanNo, &c.CreatedAt, &c.TruckNo, &c.DriverName, &c.DriverMobile, &c.Origin, &c.Destination)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetChallan retrieves a challan with its tokens.
func (r *PGRepository) GetChallan(ctx context.Context, challanNo string) (*Challan, error) {
	c, err := scanChallan(r.pool.QueryRow(ctx, `SELECT `+challanColumns+` FROM challans WHERE challan_no = $1`, challanNo))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, tokenSelect+`
		JOIN challan_tokens ct ON ct.token_id = t.id
		WHERE ct.challan_id = $1
		ORDER BY t.id`, c.ID)
	if err != nil {
		return nil, err
	}
	if c.Tokens, err = collectTokens(rows); err != nil {
		return nil, err
	}
	return c, nil
}

// ListChallans returns challans matching filter, oldest first.
func (r *PGRepository) ListChallans(ctx context.Context, filter ChallanFilter) ([]Challan, error) {
	query := `SELECT ` + challanColumns + ` FROM challans`
	var args []any
	if filter.Day != nil {
		query += ` WHERE created_at::date = $1`
		args = append(args, *filter.Day)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challans []Challan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, err
		}
		challans = append(challans, *c)
	}
	return challans, rows.Err()
}

// ListConsignments returns loaded tokens per challan. A non-empty truck
// matches truck numbers containing it.
func (r *PGRepository) ListConsignments(ctx context.Context, truck string) ([]Consignment, error) {
	query := `
		SELECT c.challan_no, c.truck_no, t.token_no, p.name, t.weight, t.total_amount
		FROM challans c
		JOIN challan_tokens ct ON ct.challan_id = c.id
		JOIN tokens t ON t.id = ct.token_id
		JOIN parties p ON p.id = t.party_id
	`
	var args []any
	if truck != "" {
		query += ` WHERE c.truck_no ILIKE $1`
		args = append(args, "%"+truck+"%")
	}
	query += ` ORDER BY c.challan_no, t.token_no`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Consignment
	for rows.Next() {
		var c Consignment
		if err := rows.Scan(&c.ChallanNo, &c.TruckNo, &c.TokenNo, &c.PartyName, &c.Weight, &c.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertChallan stores a new challan header.
func (t *txRepo) InsertChallan(ctx context.Context, c Challan) (int64, error) {
	query := `
		INSERT INTO challans (challan_no, created_at, truck_no, driver_name, driver_mobile, origin, destination)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		c.ChallanNo, c.CreatedAt, c.TruckNo, c.DriverName, c.DriverMobile, c.Origin, c.Destination,
	).Scan(&id)
	return id, err
}

// ============================================================================
// PAYMENTS
// ============================================================================

// ListPayments returns a party's payments by date.
func (r *PGRepository) ListPayments(ctx context.Context, partyID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, party_id, amount, method, date, remark
		FROM payments
		WHERE party_id = $1
		ORDER BY date, id`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PartyID, &p.Amount, &p.Method, &p.Date, &p.Remark); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// InsertPayment stores a payment.
func (t *txRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO payments (party_id, amount, method, date, remark)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.PartyID, p.Amount, p.Method, p.Date, p.Remark,
	).Scan(&id)
	return id, err
}

// ============================================================================
// NUMBERING
// ============================================================================

// NextNumber increments and returns the sequence for kind. The row lock
// taken by the upsert serializes concurrent callers until commit.
func (t *txRepo) NextNumber(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO doc_sequences (kind, last_value) VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET last_value = doc_sequences.last_value + 1
		RETURNING last_value`, kind,
	).Scan(&n)
	return n, err
}
