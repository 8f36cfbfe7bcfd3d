package transform

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/flanksource/reports/types"
)

const (
	entityOrganisation           = "organisation"
	entityOrganisationStatistics = "organisation_statistics"
	entityOffer                  = "offer"
	entitySchool                 = "school"
	entityOutput                 = "output"
)

var organisationKeys = []string{
	"name", "rechtsform", "foundingYear", "regionen", "sdgs", "handlungsfelder",
	"zielgruppen", "bildungsabschnitte", "street", "zip", "city", "state",
	"country", "website", "email", "phone", "dateUpdated",
}

// organisationOfferKeys are the organisation columns of an offer row.
var organisationOfferKeys = []string{
	"name", "rechtsform", "foundingYear", "regionen", "sdgs", "handlungsfelder",
	"zielgruppen", "bildungsabschnitte", "street", "zip", "city", "country",
	"website", "email", "phone",
}

var offerKeys = []string{"name", "primaryType", "secondaryType", "level", "levelDetails", "terms"}

var statisticKeys = []string{
	"employees", "freelancers", "volunteerHours", "volunteers", "income",
	"fundingShare", "donationShare", "businessShare", "students", "teachers",
	"principals",
}

// copyKeys copies the keys present in src to dst under "{entityType}_{key}".
// Absent keys are skipped, explicit nulls are kept.
func copyKeys(dst types.Row, src map[string]any, entityType string, keys ...string) {
	for _, key := range keys {
		copyAs(dst, types.ColumnKey(entityType, key), src, key)
	}
}

func copyAs(dst types.Row, column string, src map[string]any, key string) {
	if v, ok := src[key]; ok {
		dst[column] = v
	}
}

// copyOutputs copies every statistic key as an output column.
func copyOutputs(dst types.Row, statistic map[string]any) {
	for key, v := range statistic {
		dst[types.ColumnKey(entityOutput, key)] = v
	}
}

func flattenOrganisation(org map[string]any) []types.Row {
	row := types.Row{}
	copyKeys(row, org, entityOrganisation, organisationKeys...)
	return []types.Row{row}
}

// flattenStatistics emits one row per organisation and year.
func flattenStatistics(org map[string]any) []types.Row {
	base := types.Row{}
	copyKeys(base, org, entityOrganisation, "name", "rechtsform", "foundingYear", "bundesland")
	for k, v := range org {
		if k != "statistics" {
			base[k] = v
		}
	}

	statistics, _ := org["statistics"].(map[string]any)
	rows := make([]types.Row, 0, len(statistics))
	for _, year := range sortedYears(lo.Keys(statistics)) {
		stats, _ := statistics[year].(map[string]any)
		row := base.Clone()
		row[types.ColumnKey(entityOrganisationStatistics, "year")] = year
		for _, key := range statisticKeys {
			v := stats[key]
			if !types.Truthy(v) {
				v = "0"
			}
			row[types.ColumnKey(entityOrganisationStatistics, key)] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// sortedYears orders integer keys numerically before other keys.
func sortedYears(years []string) []string {
	slices.SortFunc(years, func(a, b string) int {
		ai, aErr := strconv.Atoi(a)
		bi, bErr := strconv.Atoi(b)
		switch {
		case aErr == nil && bErr == nil:
			return ai - bi
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		}
		return strings.Compare(a, b)
	})
	return years
}

// flattenOffers emits one row per organisation and offer.
func flattenOffers(org map[string]any) []types.Row {
	offers, _ := org["offers"].([]any)
	rows := make([]types.Row, 0, len(offers))
	for _, o := range offers {
		offer, ok := o.(map[string]any)
		if !ok {
			continue
		}
		row := types.Row{}
		copyKeys(row, offer, entityOffer, offerKeys...)
		copyKeys(row, org, entityOrganisation, organisationOfferKeys...)
		rows = append(rows, row)
	}
	return rows
}

// flattenOfferStatistics emits one row per organisation, offer and statistic.
func flattenOfferStatistics(org map[string]any) []types.Row {
	var rows []types.Row
	offers, _ := org["offers"].([]any)
	for _, o := range offers {
		offer, ok := o.(map[string]any)
		if !ok {
			continue
		}
		statistics, _ := offer["statistics"].([]any)
		for _, s := range statistics {
			statistic, ok := s.(map[string]any)
			if !ok {
				continue
			}
			row := types.Row{}
			copyKeys(row, offer, entityOffer, "name", "primaryType", "offerID")
			copyKeys(row, org, entityOrganisation, "name", "foundingYear")
			copyOutputs(row, statistic)
			rows = append(rows, row)
		}
	}
	return rows
}

// flattenSchool emits one row per school, cooperation and statistic.
func flattenSchool(school map[string]any) []types.Row {
	var rows []types.Row
	cooperations, _ := school["cooperations"].([]any)
	for _, c := range cooperations {
		cooperation, ok := c.(map[string]any)
		if !ok {
			continue
		}
		statistics, _ := cooperation["statistics"].([]any)
		for _, s := range statistics {
			statistic, ok := s.(map[string]any)
			if !ok {
				continue
			}
			row := types.Row{}
			copyAs(row, types.ColumnKey(entityOffer, "name"), cooperation, "offer")
			copyKeys(row, cooperation, entityOffer, "primaryType", "secondaryType", "level", "levelDetails", "terms")
			copyAs(row, types.ColumnKey(entitySchool, "name"), school, "name")
			copyAs(row, types.ColumnKey(entitySchool, "schoolType"), school, "schulform")
			copyOutputs(row, statistic)
			rows = append(rows, row)
		}
	}
	return rows
}
