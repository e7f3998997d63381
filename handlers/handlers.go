// Package handlers provides HTTP request handlers for the pediatric dosing
// API endpoints. It includes handlers for protocol and drug lookup, dose
// resolution, posology sheets, volume derivation, health checks, and
// response formatting with proper input validation and error handling.
package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/dosing"
	"github.com/pediago/pediago-api/interfaces"
	"github.com/pediago/pediago-api/logging"
	"github.com/pediago/pediago-api/metrics"
	"github.com/pediago/pediago-api/posology"
)

var serverStartTime = time.Now()

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// DoseResponse is the wire shape of one resolved dose. DoseMg is null when
// the rule has no numeric formula; Display then carries the placeholder.
type DoseResponse struct {
	DrugID        string   `json:"drug_id"`
	Name          string   `json:"name"`
	WeightKg      float64  `json:"weight_kg"`
	DoseMg        *float64 `json:"dose_mg"`
	Display       string   `json:"display"`
	Unit          string   `json:"unit,omitempty"`
	Source        string   `json:"source"`
	Route         string   `json:"route,omitempty"`
	FrequencyText string   `json:"frequency_text,omitempty"`
	Note          string   `json:"note,omitempty"`
	MaxDailyMg    *float64 `json:"max_daily_mg,omitempty"`
	VolumeMl      *float64 `json:"volume_ml,omitempty"`
	VolumeDisplay string   `json:"volume_display,omitempty"`
}

// noRuleResponse is what a cataloged drug without a dosing rule resolves
// to: no number, the placeholder display, and an explanatory note.
func noRuleResponse(drug catalog.Drug, weightKg float64) DoseResponse {
	return DoseResponse{
		DrugID:   drug.ID,
		Name:     drug.Name,
		WeightKg: weightKg,
		Display:  "—",
		Unit:     drug.Unit,
		Source:   string(dosing.SourceNone),
		Route:    drug.Route,
		Note:     "Règle posologique non définie",
	}
}

func newDoseResponse(drug catalog.Drug, weightKg float64, rule dosing.DosingRule, result dosing.DoseResult) DoseResponse {
	resp := DoseResponse{
		DrugID:        drug.ID,
		Name:          drug.Name,
		WeightKg:      weightKg,
		Display:       dosing.FormatMass(result.DoseMg, rule.RoundingStepMg),
		Unit:          drug.Unit,
		Source:        string(result.Source),
		Route:         result.Route,
		FrequencyText: result.FrequencyText,
		Note:          result.Note,
	}
	if !math.IsNaN(result.DoseMg) {
		dose := result.DoseMg
		resp.DoseMg = &dose
	}
	if result.MaxDailyMg > 0 {
		maxDaily := result.MaxDailyMg
		resp.MaxDailyMg = &maxDaily
	}
	return resp
}

// resolveDrugDose runs the resolver for one cataloged drug and records the
// outcome metric. The bool is false when the drug id is unknown.
func resolveDrugDose(c *catalog.Catalog, drugID string, weightKg float64) (DoseResponse, bool, error) {
	drug, ok := c.DrugsByID[drugID]
	if !ok {
		return DoseResponse{}, false, nil
	}

	rule, overrides, ok := c.RuleFor(drugID)
	if !ok {
		metrics.DoseResolutionsTotal.WithLabelValues(string(dosing.SourceNone)).Inc()
		return noRuleResponse(drug, weightKg), true, nil
	}

	result, err := dosing.Resolve(weightKg, rule, overrides)
	if err != nil {
		return DoseResponse{}, true, err
	}

	metrics.DoseResolutionsTotal.WithLabelValues(string(result.Source)).Inc()
	return newDoseResponse(drug, weightKg, rule, result), true, nil
}

// ListProtocols returns all protocols
func ListProtocols(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, dataStore.GetCatalog().Protocols)
	}
}

// FindProtocol finds a protocol by slug, following renamed-slug aliases
func FindProtocol(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := catalog.ResolveSlug(chi.URLParam(r, "slug"))
		if slug == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing protocol slug")
			return
		}

		proto, exists := dataStore.GetCatalog().ProtocolsBySlug[slug]
		if !exists {
			RespondWithError(w, http.StatusNotFound, "Protocol not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, proto)
	}
}

// ServeProtocolDoses resolves every drug of a protocol for a query weight
func ServeProtocolDoses(dataStore interfaces.DataStore, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := catalog.ResolveSlug(chi.URLParam(r, "slug"))

		c := dataStore.GetCatalog()
		proto, exists := c.ProtocolsBySlug[slug]
		if !exists {
			RespondWithError(w, http.StatusNotFound, "Protocol not found")
			return
		}

		weightKg, err := validator.ParseWeight(r.URL.Query().Get("weight"))
		if err != nil {
			logging.Warn("Unusual user input", "weight", r.URL.Query().Get("weight"))
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		// Age only annotates the response; age-banded rules carry their
		// dosing in Notes and are never computed from it.
		var ageMonths *int
		if rawAge := r.URL.Query().Get("age"); rawAge != "" {
			months, ok := dosing.ParseAgeLabel(rawAge)
			if !ok {
				RespondWithError(w, http.StatusBadRequest, "age must look like \"10 mois\", \"6 ans\" or \"3 ans 6 mois\"")
				return
			}
			ageMonths = &months
		}

		doses := make([]DoseResponse, 0, len(proto.DrugIDs))
		for _, drugID := range proto.DrugIDs {
			resp, found, err := resolveDrugDose(c, drugID, weightKg)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			if !found {
				// Integrity validation keeps this from happening; a miss
				// here means the running catalog predates the check.
				logging.Error("Protocol references unknown drug", "protocol", slug, "drug", drugID)
				continue
			}
			doses = append(doses, resp)
		}

		payload := map[string]interface{}{
			"protocol":  proto.Slug,
			"title":     proto.Title,
			"weight_kg": weightKg,
			"doses":     doses,
		}
		if ageMonths != nil {
			payload["age_months"] = *ageMonths
		}
		RespondWithJSON(w, http.StatusOK, payload)
	}
}

// ListDrugs returns the drug catalog
func ListDrugs(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, dataStore.GetCatalog().Drugs)
	}
}

// FindDrug finds a drug by id
func FindDrug(dataStore interfaces.DataStore, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drugID, err := validator.ValidateDrugID(chi.URLParam(r, "drugId"))
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		drug, exists := dataStore.GetCatalog().DrugsByID[drugID]
		if !exists {
			RespondWithError(w, http.StatusNotFound, "Drug not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, drug)
	}
}

// ResolveDose resolves one drug's dose for a query weight
func ResolveDose(dataStore interfaces.DataStore, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drugID, err := validator.ValidateDrugID(chi.URLParam(r, "drugId"))
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		weightKg, err := validator.ParseWeight(r.URL.Query().Get("weight"))
		if err != nil {
			logging.Warn("Unusual user input", "weight", r.URL.Query().Get("weight"))
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, found, err := resolveDrugDose(dataStore.GetCatalog(), drugID, weightKg)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !found {
			RespondWithError(w, http.StatusNotFound, "Drug not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, resp)
	}
}

// ItemView is a sheet item plus its display label
type ItemView struct {
	posology.Item
	Label string `json:"label"`
}

// SectionView is one titled card section
type SectionView struct {
	Key   string     `json:"key"`
	Title string     `json:"title"`
	Items []ItemView `json:"items"`
}

// PosologyResponse is the wire shape of one served card. CardWeightKg may
// differ from WeightKg when the closest lower card was selected.
type PosologyResponse struct {
	WeightKg     float64          `json:"weight_kg"`
	CardWeightKg float64          `json:"card_weight_kg"`
	AgeLabel     string           `json:"age_label,omitempty"`
	Vitals       posology.Vitals  `json:"constantes"`
	Airway       *posology.Airway `json:"iot,omitempty"`
	Sections     []SectionView    `json:"sections"`
}

func sectionView(entry *posology.SheetEntry, key string) (SectionView, bool) {
	section, ok := entry.Sections[key]
	if !ok {
		return SectionView{}, false
	}

	view := SectionView{
		Key:   key,
		Title: posology.SectionTitle(key),
		Items: make([]ItemView, 0, len(section.Items)),
	}
	for _, item := range section.Items {
		view.Items = append(view.Items, ItemView{Item: item, Label: posology.Labelize(item.Name)})
	}
	return view, true
}

func buildPosologyResponse(entry *posology.SheetEntry, weightKg float64, proto *catalog.Protocol) PosologyResponse {
	resp := PosologyResponse{
		WeightKg:     weightKg,
		CardWeightKg: entry.WeightKg,
		AgeLabel:     entry.AgeLabel,
		Vitals:       entry.Vitals,
		Sections:     []SectionView{},
	}

	sectionKeys := make([]string, 0, len(entry.Sections))
	includeAirway := true
	if proto != nil {
		// The protocol decides which sections appear and in what order.
		// "constantes" and "iot" are top-level card fields, not map keys.
		includeAirway = false
		for _, key := range proto.Sections {
			switch key {
			case "constantes":
				continue
			case "iot":
				includeAirway = true
			default:
				sectionKeys = append(sectionKeys, key)
			}
		}
	} else {
		for key := range entry.Sections {
			sectionKeys = append(sectionKeys, key)
		}
		sort.Strings(sectionKeys)
	}

	if includeAirway {
		airway := entry.Airway
		resp.Airway = &airway
	}

	for _, key := range sectionKeys {
		if view, ok := sectionView(entry, key); ok {
			resp.Sections = append(resp.Sections, view)
		}
	}

	return resp
}

// ServePosology serves the reference card for a query weight, optionally
// filtered to one protocol's sections
func ServePosology(dataStore interfaces.DataStore, validator interfaces.DataValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weightKg, err := validator.ParseWeight(r.URL.Query().Get("weight"))
		if err != nil {
			logging.Warn("Unusual user input", "weight", r.URL.Query().Get("weight"))
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		c := dataStore.GetCatalog()

		var proto *catalog.Protocol
		if rawSlug := r.URL.Query().Get("protocol"); rawSlug != "" {
			p, exists := c.ProtocolsBySlug[catalog.ResolveSlug(rawSlug)]
			if !exists {
				RespondWithError(w, http.StatusNotFound, "Protocol not found")
				return
			}
			proto = &p
		}

		entry := c.Sheets.FindByWeight(weightKg)
		if entry == nil {
			metrics.PosologyLookupMisses.Inc()
			RespondWithError(w, http.StatusNotFound,
				fmt.Sprintf("No posology data available for %g kg", weightKg))
			return
		}

		RespondWithJSON(w, http.StatusOK, buildPosologyResponse(entry, weightKg, proto))
	}
}

// VolumeResponse is the wire shape of a volume derivation
type VolumeResponse struct {
	DoseMg      float64 `json:"dose_mg"`
	ConcMgPerMl float64 `json:"conc_mg_per_ml"`
	VolumeMl    float64 `json:"volume_ml"`
	Display     string  `json:"display"`
}

func parseFiniteParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return v, nil
}

// DeriveVolume converts a mass dose to an administration volume at a
// prepared concentration
func DeriveVolume(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doseMg, err := parseFiniteParam(r, "dose_mg")
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		concMgPerMl, err := parseFiniteParam(r, "conc_mg_per_ml")
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		volumeMl, err := dosing.VolumeFromConcentration(doseMg, concMgPerMl)
		if err != nil {
			RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		RespondWithJSON(w, http.StatusOK, VolumeResponse{
			DoseMg:      doseMg,
			ConcMgPerMl: concMgPerMl,
			VolumeMl:    volumeMl,
			Display:     dosing.FormatVolume(volumeMl),
		})
	}
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// calculateNextUpdate calculates the next scheduled catalog reload time
func calculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}
	if now.Before(sixPM) {
		return sixPM
	}

	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 6, 0, 0, 0, tomorrow.Location())
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string                 `json:"status"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	Uptime        string                 `json:"uptime"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Data          map[string]interface{} `json:"data"`
}

// HealthCheck returns server health information
func HealthCheck(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := dataStore.GetServerStartTime()
		if start.IsZero() {
			start = serverStartTime
		}
		uptime := time.Since(start)

		c := dataStore.GetCatalog()
		lastUpdate := dataStore.GetLastUpdated()
		isUpdating := dataStore.IsUpdating()
		dataAge := time.Since(lastUpdate)

		// Reference data is bundled with the binary, so an empty catalog
		// means a failed load, not a slow upstream.
		var healthStatus string
		var httpStatus int
		switch {
		case len(c.Drugs) == 0 || c.Sheets.Len() == 0:
			healthStatus = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		case dataAge > 24*time.Hour:
			healthStatus = "degraded"
			httpStatus = http.StatusOK
		default:
			healthStatus = "healthy"
			httpStatus = http.StatusOK
		}

		response := HealthResponse{
			Status:        healthStatus,
			LastUpdate:    lastUpdate.Format(time.RFC3339),
			DataAgeHours:  dataAge.Hours(),
			Uptime:        formatUptimeHuman(uptime),
			UptimeSeconds: uptime.Seconds(),
			Data: map[string]interface{}{
				"api_version":       "1.0",
				"drugs":             len(c.Drugs),
				"dosing_rules":      len(c.Rules),
				"protocols":         len(c.Protocols),
				"posology_cards":    c.Sheets.Len(),
				"posology_excluded": c.ExcludedSheetEntries,
				"is_updating":       isUpdating,
				"next_update":       calculateNextUpdate().Format(time.RFC3339),
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}
