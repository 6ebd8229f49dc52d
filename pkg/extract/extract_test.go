package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gofhir/expander/pkg/priority"
	"github.com/gofhir/expander/pkg/resource"
)

func mustResource(t *testing.T, body map[string]any) *resource.Resource {
	t.Helper()
	res, err := resource.FromMap(body, "")
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	return res
}

func expectation(code string) map[string]any {
	return map[string]any{
		"extension": []any{
			map[string]any{
				"url":       "http://hl7.org/fhir/StructureDefinition/capabilitystatement-expectation",
				"valueCode": code,
			},
		},
	}
}

func TestExtractCapabilityStatement(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "base",
		"rest": []any{
			map[string]any{
				"mode":        "server",
				"compartment": []any{"http://hl7.org/fhir/CompartmentDefinition/patient"},
				"resource": []any{
					map[string]any{
						"type":             "Patient",
						"profile":          "http://example.org/fhir/StructureDefinition/MyPatient",
						"supportedProfile": []any{"http://example.org/fhir/StructureDefinition/OtherPatient"},
						"searchParam": []any{
							map[string]any{
								"name":       "name",
								"definition": "http://example.org/fhir/SearchParameter/patient-name",
								"binding": map[string]any{
									"valueSet": "http://example.org/fhir/ValueSet/names",
								},
							},
						},
						"operation": []any{
							map[string]any{
								"name":       "everything",
								"definition": "http://example.org/fhir/OperationDefinition/everything",
							},
						},
					},
				},
				"operation": []any{
					map[string]any{
						"name":       "export",
						"definition": "http://example.org/fhir/OperationDefinition/export",
					},
				},
			},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/OperationDefinition/everything",
		"http://example.org/fhir/OperationDefinition/export",
		"http://example.org/fhir/SearchParameter/patient-name",
		"http://example.org/fhir/StructureDefinition/MyPatient",
		"http://example.org/fhir/StructureDefinition/OtherPatient",
		"http://example.org/fhir/ValueSet/names",
		"http://hl7.org/fhir/CompartmentDefinition/patient",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractStructureDefinition(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "StructureDefinition",
		"id":           "my-patient",
		"snapshot": map[string]any{
			"element": []any{
				map[string]any{
					"path": "Patient.generalPractitioner",
					"type": []any{
						map[string]any{
							"code":          "Reference",
							"profile":       []any{"http://example.org/fhir/StructureDefinition/ref-type"},
							"targetProfile": []any{"http://example.org/fhir/StructureDefinition/MyPractitioner"},
						},
					},
				},
				map[string]any{
					"path": "Patient.maritalStatus",
					"binding": map[string]any{
						"strength": "required",
						"valueSet": "http://example.org/fhir/ValueSet/marital-status",
					},
				},
			},
		},
		"differential": map[string]any{
			"element": []any{
				map[string]any{
					"path": "Patient.communication.language",
					"binding": map[string]any{
						"valueSet": "http://example.org/fhir/ValueSet/languages",
					},
				},
			},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/StructureDefinition/MyPractitioner",
		"http://example.org/fhir/StructureDefinition/ref-type",
		"http://example.org/fhir/ValueSet/languages",
		"http://example.org/fhir/ValueSet/marital-status",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractValueSet(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "ValueSet",
		"id":           "vs",
		"compose": map[string]any{
			"include": []any{
				map[string]any{
					"system":   "http://example.org/fhir/CodeSystem/colors",
					"valueSet": []any{"http://example.org/fhir/ValueSet/base-colors"},
				},
			},
			"exclude": []any{
				map[string]any{"system": "http://example.org/fhir/CodeSystem/greys"},
			},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/CodeSystem/colors",
		"http://example.org/fhir/CodeSystem/greys",
		"http://example.org/fhir/ValueSet/base-colors",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSearchParameter(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "SearchParameter",
		"id":           "patient-language",
		"component": []any{
			map[string]any{
				"definition": "http://example.org/fhir/SearchParameter/component",
			},
		},
		"binding": map[string]any{
			"strength": "required",
			"valueSet": "http://example.org/fhir/ValueSet/languages",
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/SearchParameter/component",
		"http://example.org/fhir/ValueSet/languages",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractOperationDefinition(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "OperationDefinition",
		"id":           "everything",
		"inputProfile": "http://example.org/fhir/StructureDefinition/in",
		"outputProfile": "http://example.org/fhir/StructureDefinition/out",
		"parameter": []any{
			map[string]any{
				"name":          "subject",
				"targetProfile": []any{"http://example.org/fhir/StructureDefinition/MyPatient"},
				"binding": map[string]any{
					"valueSet": "http://example.org/fhir/ValueSet/subjects",
				},
			},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/StructureDefinition/MyPatient",
		"http://example.org/fhir/StructureDefinition/in",
		"http://example.org/fhir/StructureDefinition/out",
		"http://example.org/fhir/ValueSet/subjects",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractExtensionURLs(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "Patient",
		"id":           "p",
		"extension": []any{
			map[string]any{"url": "http://example.org/fhir/StructureDefinition/ext-a"},
		},
		"modifierExtension": []any{
			map[string]any{"url": "http://example.org/fhir/StructureDefinition/ext-b"},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	want := []string{
		"http://example.org/fhir/StructureDefinition/ext-a",
		"http://example.org/fhir/StructureDefinition/ext-b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPerElementExpectations(t *testing.T) {
	// Each supportedProfile element carries its own expectation; under a
	// SHALL filter only the SHALL-marked and undeclared elements survive.
	res := mustResource(t, map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "base",
		"rest": []any{
			map[string]any{
				"mode": "server",
				"resource": []any{
					map[string]any{
						"type": "Patient",
						"supportedProfile": []any{
							"http://example.org/fhir/StructureDefinition/shall-profile",
							"http://example.org/fhir/StructureDefinition/may-profile",
							"http://example.org/fhir/StructureDefinition/default-profile",
						},
						"_supportedProfile": []any{
							expectation("SHALL"),
							expectation("MAY"),
							nil,
						},
					},
				},
			},
		},
	})

	got := New(priority.Shall).Extract(res)
	want := []string{
		"http://example.org/fhir/StructureDefinition/default-profile",
		"http://example.org/fhir/StructureDefinition/shall-profile",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() under SHALL filter mismatch (-want +got):\n%s", diff)
	}

	all := New(priority.May).Extract(res)
	if len(all) != 3 {
		t.Errorf("Extract() under MAY filter collected %d refs, want 3", len(all))
	}
}

func TestExtractShouldNotNeverCollected(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "base",
		"imports":      []any{"http://example.org/fhir/CapabilityStatement/forbidden"},
		"_imports":     []any{expectation("SHOULD-NOT")},
	})

	if got := New(priority.May).Extract(res); len(got) != 0 {
		t.Errorf("SHOULD-NOT element collected: %v", got)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "ValueSet",
		"id":           "vs",
		"compose": map[string]any{
			"include": []any{
				map[string]any{"system": "http://example.org/fhir/CodeSystem/shared"},
				map[string]any{"system": "http://example.org/fhir/CodeSystem/shared"},
			},
		},
	})

	got := New(priority.ShouldNot).Extract(res)
	if len(got) != 1 {
		t.Errorf("Extract() = %v, want one deduplicated entry", got)
	}
}

func TestImportEdges(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "base",
		"url":          "http://example.org/fhir/CapabilityStatement/base",
		"imports": []any{
			"http://example.org/fhir/CapabilityStatement/zeta",
			"http://example.org/fhir/CapabilityStatement/alpha",
		},
		"_imports": []any{
			expectation("MAY"),
			nil,
		},
		"instantiates": []any{"http://example.org/fhir/CapabilityStatement/mid"},
	})

	got := ImportEdges(res)
	want := []Edge{
		{
			Source: "http://example.org/fhir/CapabilityStatement/base",
			Target: "http://example.org/fhir/CapabilityStatement/alpha",
			Level:  priority.Default,
		},
		{
			Source: "http://example.org/fhir/CapabilityStatement/base",
			Target: "http://example.org/fhir/CapabilityStatement/mid",
			Level:  priority.Default,
		},
		{
			Source: "http://example.org/fhir/CapabilityStatement/base",
			Target: "http://example.org/fhir/CapabilityStatement/zeta",
			Level:  priority.May,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImportEdges() mismatch (-want +got):\n%s", diff)
	}
}

func TestImportEdgesNone(t *testing.T) {
	res := mustResource(t, map[string]any{
		"resourceType": "CapabilityStatement",
		"id":           "leaf",
	})
	if got := ImportEdges(res); len(got) != 0 {
		t.Errorf("ImportEdges() on leaf = %v, want none", got)
	}
}
