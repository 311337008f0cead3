package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/ingest"
)

const (
	diagnosticSampleSize = 10
	emptyOrigin          = "(vazio)"
)

var genericOfferNames = map[string]struct{}{
	"auto-importado":                      {},
	"auto-importado de vendas existentes": {},
	"importado das vendas":                {},
}

// Remediation queries an operator can run after reading a diagnostic report.
const (
	checkInvalidFunnelSQL = "SELECT om.project_id, om.funnel_id, COUNT(*) " +
		"FROM public.offer_mappings om " +
		"LEFT JOIN public.funnels f ON f.id = om.funnel_id " +
		"WHERE om.funnel_id IS NOT NULL AND f.id IS NULL " +
		"GROUP BY om.project_id, om.funnel_id ORDER BY COUNT(*) DESC;"

	backfillByLegacyNameSQL = "UPDATE public.offer_mappings om " +
		"SET funnel_id = f.id, updated_at = now() " +
		"FROM public.funnels f " +
		"WHERE om.project_id = f.project_id " +
		"AND om.funnel_id IS NULL " +
		"AND om.id_funil IS NOT NULL " +
		"AND btrim(lower(om.id_funil)) = btrim(lower(f.name));"

	reassignInvalidFunnelSQLTemplate = "UPDATE public.offer_mappings om " +
		"SET funnel_id = :target_funnel_id::uuid, updated_at = now() " +
		"WHERE om.project_id = :project_id::uuid " +
		"AND (om.funnel_id IS NULL OR NOT EXISTS (" +
		"SELECT 1 FROM public.funnels f WHERE f.id = om.funnel_id));"
)

// OfferDiagnosticUseCase checks the integrity between funnel and offer-mapping exports.
type OfferDiagnosticUseCase struct{}

// NewOfferDiagnosticUseCase creates a new OfferDiagnosticUseCase.
func NewOfferDiagnosticUseCase() *OfferDiagnosticUseCase {
	return &OfferDiagnosticUseCase{}
}

// DiagnoseInput carries the two exports. File names select CSV or XLSX decoding.
type DiagnoseInput struct {
	FunnelsFileName string
	Funnels         []byte
	OffersFileName  string
	Offers          []byte
}

// OfferDiagnosticReport is the result of Diagnose.
type OfferDiagnosticReport struct {
	Totals      DiagnosticTotals    `json:"totals"`
	Integrity   DiagnosticIntegrity `json:"integrity"`
	Duplicates  DiagnosticDupes     `json:"duplicates"`
	Semantics   DiagnosticSemantics `json:"semantics"`
	Samples     DiagnosticSamples   `json:"samples"`
	Remediation map[string]string   `json:"remediation"`
}

type DiagnosticTotals struct {
	Funnels int `json:"funnels"`
	Offers  int `json:"offers"`
}

type DiagnosticIntegrity struct {
	OffersMissingFunnelID     int `json:"offers_missing_funnel_id"`
	OffersWithInvalidFunnelID int `json:"offers_with_invalid_funnel_id"`
	OffersMissingProjectID    int `json:"offers_missing_project_id"`
	OffersMissingProductName  int `json:"offers_missing_nome_produto"`
	OffersMissingOfferName    int `json:"offers_missing_nome_oferta"`
	FunnelsWithoutOffers      int `json:"funnels_without_offers"`
}

type DiagnosticDupes struct {
	Groups    int `json:"groups"`
	ExtraRows int `json:"extra_rows"`
}

type DiagnosticSemantics struct {
	GenericOfferNames int            `json:"generic_offer_names"`
	ByOrigin          map[string]int `json:"by_origem"`
}

type DiagnosticSamples struct {
	InvalidFunnelIDs     map[string]int   `json:"invalid_funnel_ids"`
	FunnelsWithoutOffers []FunnelSample   `json:"funnels_without_offers"`
	TopDuplicateGroups   []DuplicateGroup `json:"top_duplicate_groups"`
}

type FunnelSample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DuplicateGroup struct {
	Count       int    `json:"count"`
	ProjectID   string `json:"project_id"`
	FunnelID    string `json:"funnel_id"`
	ProductName string `json:"nome_produto"`
	OfferName   string `json:"nome_oferta"`
}

// record is one data row addressed by header name.
type record map[string]string

// Diagnose reads both exports and reports offers pointing at missing funnels,
// incomplete offers, duplicates and auto-imported placeholders.
func (uc *OfferDiagnosticUseCase) Diagnose(input DiagnoseInput) (*OfferDiagnosticReport, error) {
	funnels, err := readRecords(input.FunnelsFileName, input.Funnels, "id")
	if err != nil {
		return nil, fmt.Errorf("funnels export: %w", err)
	}
	offers, err := readRecords(input.OffersFileName, input.Offers)
	if err != nil {
		return nil, fmt.Errorf("offers export: %w", err)
	}

	report := &OfferDiagnosticReport{
		Totals: DiagnosticTotals{Funnels: len(funnels), Offers: len(offers)},
		Semantics: DiagnosticSemantics{
			ByOrigin: make(map[string]int),
		},
		Samples: DiagnosticSamples{
			InvalidFunnelIDs:     make(map[string]int),
			FunnelsWithoutOffers: []FunnelSample{},
			TopDuplicateGroups:   []DuplicateGroup{},
		},
		Remediation: map[string]string{
			"check_invalid_funnel_sql":             checkInvalidFunnelSQL,
			"backfill_by_legacy_name_sql":          backfillByLegacyNameSQL,
			"reassign_invalid_funnel_sql_template": reassignInvalidFunnelSQLTemplate,
		},
	}

	funnelIDs := make(map[string]struct{}, len(funnels))
	for _, f := range funnels {
		funnelIDs[f["id"]] = struct{}{}
	}

	offersByFunnel := make(map[string]int)
	groups := make(map[[4]string][]record)
	var groupOrder [][4]string

	for _, o := range offers {
		funnelID := o["funnel_id"]
		switch {
		case funnelID == "":
			report.Integrity.OffersMissingFunnelID++
		default:
			offersByFunnel[funnelID]++
			if _, ok := funnelIDs[funnelID]; !ok {
				report.Integrity.OffersWithInvalidFunnelID++
				report.Samples.InvalidFunnelIDs[funnelID]++
			}
		}
		if o["project_id"] == "" {
			report.Integrity.OffersMissingProjectID++
		}
		if o["nome_produto"] == "" {
			report.Integrity.OffersMissingProductName++
		}
		if o["nome_oferta"] == "" {
			report.Integrity.OffersMissingOfferName++
		}

		key := [4]string{
			normalizeName(o["project_id"]),
			normalizeName(funnelID),
			normalizeName(o["nome_produto"]),
			normalizeName(o["nome_oferta"]),
		}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], o)

		if _, ok := genericOfferNames[normalizeName(o["nome_oferta"])]; ok {
			report.Semantics.GenericOfferNames++
		}

		origin := o["origem"]
		if origin == "" {
			origin = emptyOrigin
		}
		report.Semantics.ByOrigin[origin]++
	}

	for _, f := range funnels {
		if offersByFunnel[f["id"]] > 0 {
			continue
		}
		report.Integrity.FunnelsWithoutOffers++
		if len(report.Samples.FunnelsWithoutOffers) < diagnosticSampleSize {
			report.Samples.FunnelsWithoutOffers = append(report.Samples.FunnelsWithoutOffers, FunnelSample{
				ID:   f["id"],
				Name: f["name"],
			})
		}
	}

	var dupes [][]record
	for _, key := range groupOrder {
		rows := groups[key]
		if len(rows) < 2 {
			continue
		}
		dupes = append(dupes, rows)
		report.Duplicates.Groups++
		report.Duplicates.ExtraRows += len(rows) - 1
	}

	sort.SliceStable(dupes, func(i, j int) bool {
		return len(dupes[i]) > len(dupes[j])
	})
	for i, rows := range dupes {
		if i == diagnosticSampleSize {
			break
		}
		first := rows[0]
		report.Samples.TopDuplicateGroups = append(report.Samples.TopDuplicateGroups, DuplicateGroup{
			Count:       len(rows),
			ProjectID:   first["project_id"],
			FunnelID:    first["funnel_id"],
			ProductName: first["nome_produto"],
			OfferName:   first["nome_oferta"],
		})
	}

	return report, nil
}

func readRecords(name string, data []byte, required ...string) ([]record, error) {
	table, err := ingest.ReadTable(name, data)
	if err != nil {
		return nil, err
	}
	if len(table.Headers) == 0 {
		return nil, nil
	}

	present := make(map[string]struct{}, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = struct{}{}
	}
	for _, col := range required {
		if _, ok := present[col]; !ok {
			return nil, fmt.Errorf("%w %q; headers found: %s", domain.ErrMissingColumn, col, strings.Join(table.Headers, ", "))
		}
	}

	records := make([]record, 0, len(table.Rows))
	for _, raw := range table.Rows {
		rec := make(record, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(raw) {
				rec[h] = strings.TrimSpace(raw[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
