package transform

import (
	"github.com/flanksource/reports/schema/openapi"
)

// Payload envelopes describe the nested containers each report type unrolls.
// Leaf values are copied as they are, only the containers are checked.

type organisationPayload struct {
	Name         any `json:"name,omitempty"`
	FoundingYear any `json:"foundingYear,omitempty"`
}

type statisticsPayload struct {
	organisationPayload
	Statistics map[string]map[string]any `json:"statistics" jsonschema:"required"`
}

type offersPayload struct {
	organisationPayload
	Offers []map[string]any `json:"offers" jsonschema:"required"`
}

type offerStatisticsPayload struct {
	organisationPayload
	Offers []struct {
		Name       any              `json:"name,omitempty"`
		Statistics []map[string]any `json:"statistics,omitempty"`
	} `json:"offers,omitempty"`
}

type schoolPayload struct {
	Name         any `json:"name,omitempty"`
	Schulform    any `json:"schulform,omitempty"`
	Cooperations []struct {
		Offer      any              `json:"offer,omitempty"`
		Statistics []map[string]any `json:"statistics,omitempty"`
	} `json:"cooperations" jsonschema:"required"`
}

var payloadTypes = map[ReportType]any{
	Organisations:                 &organisationPayload{},
	OrganisationsStatistics:       &statisticsPayload{},
	OrganisationsOffers:           &offersPayload{},
	OrganisationsOffersStatistics: &offerStatisticsPayload{},
	SchoolsStatisticsOffers:       &schoolPayload{},
}

var validators = func() map[ReportType]*openapi.Validator {
	out := make(map[ReportType]*openapi.Validator, len(payloadTypes))
	for t, obj := range payloadTypes {
		out[t] = openapi.MustValidator(obj)
	}
	return out
}()

// Schema returns the JSON schema of one raw item of a built in report type.
func Schema(reportType string) ([]byte, bool, error) {
	obj, ok := payloadTypes[ReportType(reportType)]
	if !ok {
		return nil, false, nil
	}
	data, err := openapi.GenerateSchema(obj)
	return data, true, err
}

// validate checks one raw item against its report type envelope.
func validate(t ReportType, item map[string]any) bool {
	v, ok := validators[t]
	if !ok {
		return true
	}
	if err := v.Validate(item); err != nil {
		log.V(3).Infof("dropping %s item: %v", t, err)
		return false
	}
	return true
}
