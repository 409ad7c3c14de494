package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mohammad-safakhou/contentagent/models"
)

const moduleColumns = `m.id, m.name, m.slug, m.title, m.description, m.purpose, m.prompt_template,
       m.scraper_sources, m.output_format, m.web_scraper, m.internet_search, m.asset_library, m.translation`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (models.Module, error) {
	var (
		m      models.Module
		format string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Title, &m.Description, &m.Purpose, &m.PromptTemplate,
		&m.ScraperSources, &format, &m.WebScraper, &m.InternetSearch, &m.AssetLibrary, &m.Translation); err != nil {
		return models.Module{}, err
	}
	m.OutputFormat = models.OutputFormat(format).Normalize()
	return m, nil
}

// GetModuleForOrg loads a module only when orgID has been granted access to it.
func (s *Store) GetModuleForOrg(ctx context.Context, orgID string, moduleID int64) (models.Module, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+moduleColumns+`
FROM modules m
JOIN org_module_access a ON a.module_id = m.id
WHERE m.id = $1 AND a.org_id = $2`, moduleID, orgID)
	m, err := scanModule(row)
	if err != nil {
		return models.Module{}, notFound(err, fmt.Sprintf("module %d", moduleID))
	}
	return m, nil
}

// GetModuleBySlugForOrg is the slug-addressed variant of GetModuleForOrg.
func (s *Store) GetModuleBySlugForOrg(ctx context.Context, orgID, slug string) (models.Module, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+moduleColumns+`
FROM modules m
JOIN org_module_access a ON a.module_id = m.id
WHERE m.slug = $1 AND a.org_id = $2`, slug, orgID)
	m, err := scanModule(row)
	if err != nil {
		return models.Module{}, notFound(err, "module "+slug)
	}
	return m, nil
}

// ListModulesForOrg returns every module the organization can use, ordered by name.
func (s *Store) ListModulesForOrg(ctx context.Context, orgID string) ([]models.Module, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+moduleColumns+`
FROM modules m
JOIN org_module_access a ON a.module_id = m.id
WHERE a.org_id = $1
ORDER BY m.name, m.id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetOrgPreference returns the organization-wide prompt settings.
func (s *Store) GetOrgPreference(ctx context.Context, orgID string) (models.OrgPreference, error) {
	var p models.OrgPreference
	err := s.DB.QueryRowContext(ctx, `
SELECT org_id, organization_prompt, check_form_data_prompt
FROM org_preferences WHERE org_id = $1`, orgID).Scan(&p.OrgID, &p.OrganizationPrompt, &p.CheckFormDataPrompt)
	if err != nil {
		return models.OrgPreference{}, notFound(err, "org preference "+orgID)
	}
	return p, nil
}

// GetOrgModuleAccess returns the access row linking orgID to moduleID. Its id scopes the asset library.
func (s *Store) GetOrgModuleAccess(ctx context.Context, orgID string, moduleID int64) (models.OrgModuleAccess, error) {
	var (
		a             models.OrgModuleAccess
		summaryPrompt sql.NullString
		formSchemaID  sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT id, org_id, module_id, prompt, summary_prompt, form_schema_id
FROM org_module_access WHERE org_id = $1 AND module_id = $2`, orgID, moduleID).
		Scan(&a.ID, &a.OrgID, &a.ModuleID, &a.Prompt, &summaryPrompt, &formSchemaID)
	if err != nil {
		return models.OrgModuleAccess{}, notFound(err, fmt.Sprintf("org module access %s/%d", orgID, moduleID))
	}
	a.SummaryPrompt = summaryPrompt.String
	if formSchemaID.Valid {
		id := formSchemaID.Int64
		a.FormSchemaID = &id
	}
	return a, nil
}
