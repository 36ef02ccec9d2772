// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema defines the closed institution field schema shared by the
// extraction and quality-scoring layers. The schema is frozen at build time:
// the extractor only emits fields listed here, and the scorer only counts
// fields listed here. Adding a field means touching this package and nothing
// else.
package schema

// Version identifies the frozen field set. It participates in extraction
// cache keys so that schema changes invalidate cached extractions.
const Version = "2025-08"

// =============================================================================
// Institution types
// =============================================================================

// InstitutionType tags a profile subject with one of four coarse classes.
// Specialized schema fields are gated on this tag.
type InstitutionType string

const (
	TypeUniversity InstitutionType = "university"
	TypeHospital   InstitutionType = "hospital"
	TypeBank       InstitutionType = "bank"
	TypeGeneral    InstitutionType = "general"
)

// ParseType maps a free-form tag to a known InstitutionType.
//
// Outputs:
//   - InstitutionType: the matching tag, or TypeGeneral when unrecognized.
//   - bool: true when the input named a known tag exactly.
func ParseType(s string) (InstitutionType, bool) {
	switch InstitutionType(s) {
	case TypeUniversity, TypeHospital, TypeBank, TypeGeneral:
		return InstitutionType(s), true
	}
	return TypeGeneral, false
}

// =============================================================================
// Field classes
// =============================================================================

// FieldClass is the priority class of a schema field. Classes carry fixed
// weights used by the quality scorer.
type FieldClass string

const (
	ClassCritical    FieldClass = "critical"
	ClassImportant   FieldClass = "important"
	ClassValuable    FieldClass = "valuable"
	ClassSpecialized FieldClass = "specialized"
	ClassEnhanced    FieldClass = "enhanced"
)

// Classes lists every field class in scoring order.
var Classes = []FieldClass{
	ClassCritical, ClassImportant, ClassValuable, ClassSpecialized, ClassEnhanced,
}

// Weight returns the scoring weight of the class. Weights sum to 1.0.
func (c FieldClass) Weight() float64 {
	switch c {
	case ClassCritical:
		return 0.40
	case ClassImportant:
		return 0.25
	case ClassValuable:
		return 0.20
	case ClassSpecialized:
		return 0.10
	case ClassEnhanced:
		return 0.05
	}
	return 0
}

// =============================================================================
// Field table
// =============================================================================

// Field describes one schema entry.
//
// Types is only consulted for ClassSpecialized fields: a specialized field is
// eligible for a record whose institution type appears in Types. All other
// classes apply to every type.
type Field struct {
	Name  string
	Class FieldClass
	Types []InstitutionType
}

// AppliesTo reports whether the field is eligible for records of type t.
// Specialized fields never apply to TypeGeneral.
func (f Field) AppliesTo(t InstitutionType) bool {
	if f.Class != ClassSpecialized {
		return true
	}
	if t == TypeGeneral {
		return false
	}
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

func spec(name string, types ...InstitutionType) Field {
	return Field{Name: name, Class: ClassSpecialized, Types: types}
}

// fields is the frozen schema. Order within a class is stable and is the
// order prompts present fields in.
var fields = []Field{
	// critical
	{Name: "name", Class: ClassCritical},
	{Name: "official_name", Class: ClassCritical},
	{Name: "type", Class: ClassCritical},
	{Name: "website", Class: ClassCritical},
	{Name: "description", Class: ClassCritical},
	{Name: "location_city", Class: ClassCritical},
	{Name: "location_country", Class: ClassCritical},
	{Name: "address", Class: ClassCritical},

	// important
	{Name: "founded", Class: ClassImportant},
	{Name: "phone", Class: ClassImportant},
	{Name: "email", Class: ClassImportant},
	{Name: "ceo", Class: ClassImportant},
	{Name: "state", Class: ClassImportant},
	{Name: "postal_code", Class: ClassImportant},
	{Name: "industry_sector", Class: ClassImportant},
	{Name: "size", Class: ClassImportant},
	{Name: "number_of_employees", Class: ClassImportant},
	{Name: "headquarters_location", Class: ClassImportant},

	// valuable
	{Name: "leadership", Class: ClassValuable},
	{Name: "president", Class: ClassValuable},
	{Name: "chairman", Class: ClassValuable},
	{Name: "key_people", Class: ClassValuable},
	{Name: "annual_revenue", Class: ClassValuable},
	{Name: "legal_status", Class: ClassValuable},
	{Name: "fields_of_focus", Class: ClassValuable},
	{Name: "services_offered", Class: ClassValuable},
	{Name: "products", Class: ClassValuable},
	{Name: "operating_countries", Class: ClassValuable},

	// specialized
	spec("student_population", TypeUniversity),
	spec("faculty_count", TypeUniversity),
	spec("programs_offered", TypeUniversity),
	spec("campus_size", TypeUniversity),
	spec("medical_specialties", TypeHospital),
	spec("patient_capacity", TypeHospital),
	spec("bed_count", TypeHospital),
	spec("departments", TypeUniversity, TypeHospital),
	spec("research_areas", TypeUniversity, TypeHospital),
	spec("accreditation_bodies", TypeUniversity, TypeHospital),
	spec("branches_count", TypeBank),
	spec("assets_size", TypeBank),
	spec("regulatory_body", TypeBank),

	// enhanced
	{Name: "notable_achievements", Class: ClassEnhanced},
	{Name: "rankings", Class: ClassEnhanced},
	{Name: "awards", Class: ClassEnhanced},
	{Name: "certifications", Class: ClassEnhanced},
	{Name: "affiliations", Class: ClassEnhanced},
	{Name: "partnerships", Class: ClassEnhanced},
	{Name: "publications", Class: ClassEnhanced},
	{Name: "patents", Class: ClassEnhanced},
	{Name: "endowment", Class: ClassEnhanced},
	{Name: "budget", Class: ClassEnhanced},
	{Name: "facilities", Class: ClassEnhanced},
	{Name: "recent_news", Class: ClassEnhanced},
	{Name: "press_releases", Class: ClassEnhanced},
	{Name: "notable_alumni", Class: ClassEnhanced},
	{Name: "social_media", Class: ClassEnhanced},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the schema entry for name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// Fields returns the schema in declaration order. Callers must not mutate
// the returned slice.
func Fields() []Field {
	return fields
}

// Eligible returns the fields of class c that apply to institution type t,
// in declaration order.
func Eligible(c FieldClass, t InstitutionType) []Field {
	var out []Field
	for _, f := range fields {
		if f.Class == c && f.AppliesTo(t) {
			out = append(out, f)
		}
	}
	return out
}
