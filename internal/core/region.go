package core

import "strings"

// Regions offered by the dashboard selector. AllRegions means unfiltered.
const (
	AllRegions  = "Brasil"
	CentroOeste = "Centro-Oeste"
	Nordeste    = "Nordeste"
	Norte       = "Norte"
	Sudeste     = "Sudeste"
	Sul         = "Sul"
)

// Year bounds of the dataset, as exposed by the year slider.
const (
	FirstYear = 2020
	LastYear  = 2023
)

var statesByRegion = map[string][]string{
	CentroOeste: {"DF", "GO", "MS", "MT"},
	Nordeste:    {"AL", "BA", "CE", "MA", "PB", "PE", "PI", "RN", "SE"},
	Norte:       {"AC", "AM", "AP", "PA", "RO", "RR", "TO"},
	Sudeste:     {"ES", "MG", "RJ", "SP"},
	Sul:         {"PR", "RS", "SC"},
}

var regionByState = func() map[string]string {
	m := make(map[string]string, 27)
	for region, states := range statesByRegion {
		for _, uf := range states {
			m[uf] = region
		}
	}
	return m
}()

// Regions returns the selector options in display order.
func Regions() []string {
	return []string{AllRegions, CentroOeste, Nordeste, Norte, Sudeste, Sul}
}

// CanonicalRegion resolves a region name case-insensitively.
// The empty string resolves to AllRegions.
func CanonicalRegion(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AllRegions, true
	}
	for _, r := range Regions() {
		if strings.EqualFold(r, name) {
			return r, true
		}
	}
	return "", false
}

// RegionOf returns the region of a state code (UF), or "" when unknown.
func RegionOf(state string) string {
	return regionByState[strings.ToUpper(strings.TrimSpace(state))]
}

// StatesOf returns the state codes of a region. AllRegions yields nil.
func StatesOf(region string) []string {
	return append([]string(nil), statesByRegion[region]...)
}
