package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/prestataires-ui/internal/data/pgxutil"
	"github.com/target/prestataires-ui/internal/domain/prestataire"
	apperrors "github.com/target/prestataires-ui/internal/errors"
)

// ErrPrestataireNotFound is returned when a prestataire id has no row.
var ErrPrestataireNotFound = apperrors.NotFound("Prestataire introuvable")

const prestataireColumns = `id, company, contact, phone, email, specialty, address, siret, status, chantier_count, last_contact`

type chantierRow struct {
	PrestataireID string `db:"prestataire_id"`
	prestataire.Chantier
}

type relanceRow struct {
	PrestataireID string `db:"prestataire_id"`
	prestataire.Relance
}

type documentRow struct {
	PrestataireID string `db:"prestataire_id"`
	prestataire.Document
}

// PrestataireRepo reads and writes prestataires with their chantiers, relances and documents.
type PrestataireRepo struct {
	DB *sql.DB
}

// NewPrestataireRepo creates a PrestataireRepo backed by db.
func NewPrestataireRepo(db *sql.DB) *PrestataireRepo {
	return &PrestataireRepo{DB: db}
}

// List returns every prestataire in display order with its collections loaded.
func (r *PrestataireRepo) List(ctx context.Context) ([]prestataire.Prestataire, error) {
	var out []prestataire.Prestataire
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectStructs[prestataire.Prestataire](ctx, conn,
			`SELECT `+prestataireColumns+` FROM prestataires ORDER BY position, id`)
		if err != nil {
			return err
		}
		return loadCollections(ctx, conn, out)
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID returns one prestataire with its collections loaded.
func (r *PrestataireRepo) GetByID(ctx context.Context, id string) (*prestataire.Prestataire, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrPrestataireNotFound
	}

	var out prestataire.Prestataire
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectStruct[prestataire.Prestataire](ctx, conn,
			`SELECT `+prestataireColumns+` FROM prestataires WHERE id = $1`, id)
		if err != nil {
			return err
		}
		list := []prestataire.Prestataire{out}
		if loadErr := loadCollections(ctx, conn, list); loadErr != nil {
			return loadErr
		}
		out = list[0]
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPrestataireNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Count returns the number of stored prestataires.
func (r *PrestataireRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT count(*) FROM prestataires`).Scan(&n)
	})
	return n, apperrors.MapDBError(err)
}

// ReplaceAll upserts every record in one transaction, using the slice index as display position.
// Owned collections are rewritten so they match the given records exactly.
func (r *PrestataireRepo) ReplaceAll(ctx context.Context, records []prestataire.Prestataire) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for i := range records {
				queueUpsert(batch, &records[i], i)
			}
			return tx.SendBatch(ctx, batch).Close()
		},
	})
	return apperrors.MapDBError(err)
}

// DeleteAll removes every prestataire; owned rows cascade.
func (r *PrestataireRepo) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM prestataires`)
		n = tag.RowsAffected()
		return err
	})
	return n, apperrors.MapDBError(err)
}

func queueUpsert(batch *pgx.Batch, p *prestataire.Prestataire, position int) {
	batch.Queue(`
		INSERT INTO prestataires (
			id, company, contact, phone, email, specialty, address, siret, status, chantier_count, last_contact, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			contact = EXCLUDED.contact,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			specialty = EXCLUDED.specialty,
			address = EXCLUDED.address,
			siret = EXCLUDED.siret,
			status = EXCLUDED.status,
			chantier_count = EXCLUDED.chantier_count,
			last_contact = EXCLUDED.last_contact,
			position = EXCLUDED.position,
			updated_at = now()`,
		p.ID, p.Company, p.Contact, p.Phone, p.Email, p.Specialty, p.Address, p.SIRET,
		string(p.Status), p.ChantierCount, p.LastContact.UTC(), position,
	)

	for _, table := range []string{"chantiers", "relances", "documents"} {
		batch.Queue(`DELETE FROM `+table+` WHERE prestataire_id = $1`, p.ID)
	}
	for _, c := range p.Chantiers {
		batch.Queue(`INSERT INTO chantiers (prestataire_id, id, name, status, role, last_intervention)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, c.ID, c.Name, string(c.Status), c.Role, c.LastIntervention.UTC())
	}
	for _, rel := range p.Relances {
		batch.Queue(`INSERT INTO relances (prestataire_id, id, date, channel, outcome, note)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, rel.ID, rel.Date.UTC(), string(rel.Channel), string(rel.Outcome), rel.Note)
	}
	for _, d := range p.Documents {
		batch.Queue(`INSERT INTO documents (prestataire_id, id, name, category, date, storage_key)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, d.ID, d.Name, string(d.Category), d.Date.UTC(), d.StorageKey)
	}
}

// loadCollections fills the owned slices of every record with three queries in total.
// Slices are always non-nil so empty collections render as [] in JSON.
func loadCollections(ctx context.Context, conn *pgx.Conn, records []prestataire.Prestataire) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	index := make(map[string]int, len(records))
	for i := range records {
		ids[i] = records[i].ID
		index[records[i].ID] = i
		records[i].Chantiers = []prestataire.Chantier{}
		records[i].Relances = []prestataire.Relance{}
		records[i].Documents = []prestataire.Document{}
	}

	chantiers, err := pgxutil.CollectStructs[chantierRow](ctx, conn,
		`SELECT prestataire_id, id, name, status, role, last_intervention
		 FROM chantiers WHERE prestataire_id = ANY($1) ORDER BY prestataire_id, id`, ids)
	if err != nil {
		return fmt.Errorf("load chantiers: %w", err)
	}
	for _, c := range chantiers {
		i := index[c.PrestataireID]
		records[i].Chantiers = append(records[i].Chantiers, c.Chantier)
	}

	relances, err := pgxutil.CollectStructs[relanceRow](ctx, conn,
		`SELECT prestataire_id, id, date, channel, outcome, note
		 FROM relances WHERE prestataire_id = ANY($1) ORDER BY prestataire_id, id`, ids)
	if err != nil {
		return fmt.Errorf("load relances: %w", err)
	}
	for _, rel := range relances {
		i := index[rel.PrestataireID]
		records[i].Relances = append(records[i].Relances, rel.Relance)
	}

	documents, err := pgxutil.CollectStructs[documentRow](ctx, conn,
		`SELECT prestataire_id, id, name, category, date, storage_key
		 FROM documents WHERE prestataire_id = ANY($1) ORDER BY prestataire_id, id`, ids)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for _, d := range documents {
		i := index[d.PrestataireID]
		records[i].Documents = append(records[i].Documents, d.Document)
	}
	return nil
}
