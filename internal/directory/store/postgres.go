package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merenda/internal/directory"
	"merenda/pkg/domain"
	"merenda/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func nullableUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

func (s *PostgresStore) SaveInstitution(ctx context.Context, inst *directory.Institution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO institutions (id, kind, name, code, contact_email, district_id, lot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			contact_email = EXCLUDED.contact_email,
			district_id = EXCLUDED.district_id,
			lot_id = EXCLUDED.lot_id
	`,
		uuid.UUID(inst.ID),
		string(inst.Kind),
		inst.Name,
		inst.Code,
		inst.ContactEmail,
		nullableUUID(uuid.UUID(inst.DistrictID)),
		nullableUUID(uuid.UUID(inst.LotID)),
	)
	if err != nil {
		return fmt.Errorf("upsert institution: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveLot(ctx context.Context, lot *directory.Lot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lots (id, name, district_id, contractor_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			district_id = EXCLUDED.district_id,
			contractor_id = EXCLUDED.contractor_id
	`,
		uuid.UUID(lot.ID),
		lot.Name,
		nullableUUID(uuid.UUID(lot.DistrictID)),
		nullableUUID(uuid.UUID(lot.ContractorID)),
	)
	if err != nil {
		return fmt.Errorf("upsert lot: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *directory.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, institution_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			institution_id = EXCLUDED.institution_id,
			active = EXCLUDED.active
	`,
		uuid.UUID(user.ID),
		user.Name,
		user.Email,
		string(user.Role),
		uuid.UUID(user.InstitutionID),
		user.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddContractorEmail(ctx context.Context, contractor domain.InstitutionID, module directory.ServiceModule, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contractor_emails (contractor_id, module, email)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, uuid.UUID(contractor), string(module), email)
	if err != nil {
		return fmt.Errorf("insert contractor email: %w", err)
	}
	return nil
}

func (s *PostgresStore) Institution(ctx context.Context, id domain.InstitutionID) (*directory.Institution, error) {
	var (
		inst     directory.Institution
		iid      uuid.UUID
		kind     string
		district uuid.NullUUID
		lot      uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, code, contact_email, district_id, lot_id
		FROM institutions WHERE id = $1
	`, uuid.UUID(id)).Scan(&iid, &kind, &inst.Name, &inst.Code, &inst.ContactEmail, &district, &lot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query institution: %w", err)
	}
	inst.ID = domain.InstitutionID(iid)
	inst.Kind = domain.InstitutionKind(kind)
	if district.Valid {
		inst.DistrictID = domain.InstitutionID(district.UUID)
	}
	if lot.Valid {
		inst.LotID = directory.LotID(lot.UUID)
	}
	return &inst, nil
}

func (s *PostgresStore) Lot(ctx context.Context, id directory.LotID) (*directory.Lot, error) {
	var (
		lot        directory.Lot
		lid        uuid.UUID
		district   uuid.NullUUID
		contractor uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, district_id, contractor_id FROM lots WHERE id = $1
	`, uuid.UUID(id)).Scan(&lid, &lot.Name, &district, &contractor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query lot: %w", err)
	}
	lot.ID = directory.LotID(lid)
	if district.Valid {
		lot.DistrictID = domain.InstitutionID(district.UUID)
	}
	if contractor.Valid {
		lot.ContractorID = domain.InstitutionID(contractor.UUID)
	}
	return &lot, nil
}

func (s *PostgresStore) ActiveUsersByRoles(ctx context.Context, institution domain.InstitutionID, roles []domain.Role) ([]directory.User, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, institution_id, active
		FROM users
		WHERE ($1::uuid IS NULL OR institution_id = $1) AND active AND role = ANY($2)
		ORDER BY email
	`, nullableUUID(uuid.UUID(institution)), pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []directory.User
	for rows.Next() {
		var (
			u    directory.User
			uid  uuid.UUID
			iid  uuid.UUID
			role string
		)
		if err := rows.Scan(&uid, &u.Name, &u.Email, &role, &iid, &u.Active); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = domain.UserID(uid)
		u.InstitutionID = domain.InstitutionID(iid)
		u.Role = domain.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ContractorEmails(ctx context.Context, contractor domain.InstitutionID, module directory.ServiceModule) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email FROM contractor_emails
		WHERE contractor_id = $1 AND module = $2
		ORDER BY email
	`, uuid.UUID(contractor), string(module))
	if err != nil {
		return nil, fmt.Errorf("query contractor emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan contractor email: %w", err)
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
