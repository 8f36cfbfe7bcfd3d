package catalog

import (
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/types"
)

const (
	EntityOrganisation           = "organisation"
	EntityOrganisationStatistics = "organisation_statistics"
	EntitySchool                 = "school"
	EntityOffer                  = "offer"
	EntityOutput                 = "output"
)

func field(value, label string, dataType types.DataType) models.FieldConfig {
	return models.FieldConfig{Value: value, Label: label, DataType: dataType}
}

var organisationFields = []models.FieldConfig{
	field("name", "Name", types.DataTypeString),
	field("rechtsform", "Rechtsform", types.DataTypeString),
	field("foundingYear", "Gründungsjahr", types.DataTypeNumber),
	field("bundesland", "Bundesland (Sitz)", types.DataTypeString),
	field("regionen", "Regionen", types.DataTypeArray),
	field("sdgs", "Nachhaltigkeitsziele", types.DataTypeArray),
	field("handlungsfelder", "Handlungsfelder", types.DataTypeArray),
	field("zielgruppen", "Zielgruppen", types.DataTypeArray),
	field("bildungsabschnitte", "Bildungsabschnitte", types.DataTypeArray),
	field("street", "Straße", types.DataTypeString),
	field("zip", "PLZ", types.DataTypeString),
	field("city", "Stadt", types.DataTypeString),
	field("state", "Bundesland", types.DataTypeString),
	field("country", "Land", types.DataTypeString),
	field("website", "Website", types.DataTypeString),
	field("email", "E-Mail", types.DataTypeString),
	field("phone", "Telefon", types.DataTypeString),
	field("dateUpdated", "Aktualisiert am", types.DataTypeDate),
}

var organisationStatisticsFields = []models.FieldConfig{
	field("year", "Jahr", types.DataTypeNumber),
	field("fte", "Vollzeitäquivalente", types.DataTypeFloat),
	field("employees", "Angestellte", types.DataTypeNumber),
	field("freelancers", "Freiberufliche", types.DataTypeNumber),
	field("volunteers", "Ehrenamtliche", types.DataTypeNumber),
	field("volunteerHours", "Ehrenamtliche Stunden", types.DataTypeNumber),
	field("income", "Einkommen", types.DataTypeNumber),
	field("fundingShare", "Fördergelder (%)", types.DataTypeFloat),
	field("donationShare", "Spenden (%)", types.DataTypeFloat),
	field("businessShare", "Wirtschaftlicher Zweckbetrieb (%)", types.DataTypeFloat),
	field("students", "Erreichte Schüler:innen", types.DataTypeNumber),
	field("teachers", "Erreichte Lehrer:innen", types.DataTypeNumber),
	field("schools", "Erreichte Schulen", types.DataTypeNumber),
	field("principals", "Erreichte Schulleitungen", types.DataTypeNumber),
	field("impactReportLink", "Wirkungsbericht", types.DataTypeString),
	field("financialReportLink", "Jahresabschluss", types.DataTypeString),
}

var schoolFields = []models.FieldConfig{
	field("name", "Name", types.DataTypeString),
	field("schoolType", "Schulform", types.DataTypeString),
	field("zip", "PLZ", types.DataTypeString),
	field("city", "Stadt", types.DataTypeString),
	field("street", "Straße", types.DataTypeString),
	field("state", "Bundesland", types.DataTypeString),
	field("country", "Land", types.DataTypeString),
	field("tags", "Schlagwörter", types.DataTypeArray),
}

var offerFields = []models.FieldConfig{
	field("name", "Name", types.DataTypeString),
	field("primaryType", "Art des Angebots", types.DataTypeString),
	field("secondaryType", "Art des Angebots - Detail", types.DataTypeString),
	field("level", "Ebene des Angebots", types.DataTypeString),
	field("levelDetails", "Ebene des Angebots - Detail", types.DataTypeString),
	field("terms", "Konditionen", types.DataTypeArray),
	field("offerID", "Angebots-ID", types.DataTypeString),
}

var outputFields = []models.FieldConfig{
	field("dateStart", "Beginn", types.DataTypeDate),
	field("dateEnd", "Ende", types.DataTypeDate),
	field("schoolYear", "Schuljahr", types.DataTypeString),
	field("frequency", "Häufigkeit", types.DataTypeString),
	field("reachStudents", "Anzahl Schüler:innen", types.DataTypeNumber),
	field("reachTeachers", "Anzahl Lehrer:innen", types.DataTypeNumber),
	field("educationalLevels", "Klassenstufen", types.DataTypeArray),
}

// DefaultConfig is the built in German catalog.
func DefaultConfig() models.ReportConfig {
	return models.ReportConfig{
		FieldsByEntity: map[string][]models.FieldConfig{
			EntityOrganisation:           organisationFields,
			EntityOrganisationStatistics: organisationStatisticsFields,
			EntitySchool:                 schoolFields,
			EntityOffer:                  offerFields,
			EntityOutput:                 outputFields,
		},
		ReportTypeEntities: map[string][]string{
			"organisations":                   {EntityOrganisation},
			"organisations_statistics":        {EntityOrganisation, EntityOrganisationStatistics},
			"organisations_offers":            {EntityOrganisation, EntityOffer},
			"organisations_offers_statistics": {EntityOrganisation, EntityOffer, EntityOutput},
			"schools_statistics_offers":       {EntitySchool, EntityOffer, EntityOutput},
		},
		EntityLabels: map[string]string{
			EntityOrganisation:           "Organisation",
			EntityOrganisationStatistics: "Organisation Statistik",
			EntitySchool:                 "Schule",
			EntityOffer:                  "Angebot",
			EntityOutput:                 "Kooperation",
		},
		DefaultRangeFields: map[string]string{
			"organisations_statistics":        types.ColumnKey(EntityOrganisationStatistics, "year"),
			"organisations_offers_statistics": types.ColumnKey(EntityOutput, "dateStart"),
			"schools_statistics_offers":       types.ColumnKey(EntityOutput, "dateStart"),
		},
	}
}

// defaultEntityOrder is the catalog order of the built in entities.
var defaultEntityOrder = []string{
	EntityOrganisation,
	EntityOrganisationStatistics,
	EntitySchool,
	EntityOffer,
	EntityOutput,
}

// Default returns the built in German catalog.
func Default() *Catalog {
	c, err := newCatalog(DefaultConfig(), defaultEntityOrder)
	if err != nil {
		panic(err)
	}
	return c
}
