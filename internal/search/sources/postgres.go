// internal/search/sources/postgres.go
package sources

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/models"
)

const sourcePostgres = "postgres"

const (
	listAllCandidatesQuery = `
		SELECT id, name, headline, skills, bio, availability
		FROM experts
		ORDER BY name
		LIMIT $1`

	plainLookupQuery = `
		SELECT id, name, headline, skills, bio, availability
		FROM experts
		WHERE name ILIKE $1 OR headline ILIKE $1 OR skills ILIKE $1
		ORDER BY name
		LIMIT $2`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresDirectory serves the unranked population and the plain substring lookup.
type PostgresDirectory struct {
	db          *sql.DB
	listLimit   int
	lookupLimit int
	logger      logger.Logger
}

func NewPostgresDirectory(db *sql.DB, listLimit, lookupLimit int, log logger.Logger) *PostgresDirectory {
	return &PostgresDirectory{
		db:          db,
		listLimit:   listLimit,
		lookupLimit: lookupLimit,
		logger:      log.WithFields(map[string]interface{}{"source": sourcePostgres}),
	}
}

// ListAllCandidates returns up to listLimit experts ordered by name.
func (d *PostgresDirectory) ListAllCandidates(ctx context.Context) ([]models.Candidate, error) {
	candidates, err := d.query(ctx, listAllCandidatesQuery, d.listLimit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, stderrors.NewSearchTimeoutError(sourcePostgres)
		}
		return nil, stderrors.NewCandidateListingFailedError(err)
	}
	return candidates, nil
}

// PlainLookup matches the query as a case-insensitive substring of name, headline or skills.
func (d *PostgresDirectory) PlainLookup(ctx context.Context, query string) ([]models.Candidate, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
	candidates, err := d.query(ctx, plainLookupQuery, pattern, d.lookupLimit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, stderrors.NewSearchTimeoutError(sourcePostgres)
		}
		return nil, stderrors.NewPlainLookupFailedError(err)
	}
	return candidates, nil
}

func (d *PostgresDirectory) query(ctx context.Context, query string, args ...interface{}) ([]models.Candidate, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		var headline, skills, bio, availability sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &headline, &skills, &bio, &availability); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c.Headline = headline.String
		c.Skills = splitSkills(skills.String)
		c.Bio = bio.String
		c.Availability = availability.String
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	d.logger.Debug("directory query completed", map[string]interface{}{
		"rows": len(candidates),
	})
	return candidates, nil
}

// splitSkills parses the comma-separated skills column.
func splitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
