package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
)

type schema = map[string]interface{}

func queryParam(name, description string, s schema) schema {
	return schema{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      s,
	}
}

func pathParam(name, description string) schema {
	return schema{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      schema{"type": "string"},
	}
}

func jsonResponse(description string, body schema) schema {
	return schema{
		"description": description,
		"content": schema{
			"application/json": schema{"schema": body},
		},
	}
}

func ref(name string) schema {
	return schema{"$ref": "#/components/schemas/" + name}
}

func metricParameter() schema {
	return queryParam("metric", "Metric key (default: total_emission)", schema{
		"type":    "string",
		"enum":    []string{"total_emission", "fuel_emission", "electricity_emission", "methane_emission"},
		"default": "total_emission",
	})
}

var errorResponses = schema{
	"400": jsonResponse("Invalid request", ref("Error")),
	"404": jsonResponse("Resource not found", ref("Error")),
}

func sessionOperation(summary string, body schema) schema {
	op := schema{
		"summary":    summary,
		"parameters": []schema{pathParam("id", "Calculator session ID")},
		"responses":  schema{"200": jsonResponse("Session state", ref("Session"))},
	}
	for code, resp := range errorResponses {
		op["responses"].(schema)[code] = resp
	}
	if body != nil {
		op["requestBody"] = schema{
			"required": true,
			"content":  schema{"application/json": schema{"schema": body}},
		}
	}
	return op
}

// openAPIDocument describes every route registered by the emission and calculator handlers
func openAPIDocument() schema {
	cell := schema{
		"description": "Unset (null), a number with two decimals, or \"NaN\"/\"Infinity\"/\"-Infinity\"",
		"nullable":    true,
		"oneOf":       []schema{{"type": "number"}, {"type": "string"}},
	}

	inputOp := sessionOperation("Set a calculator input", schema{
		"type":       "object",
		"properties": schema{"value": schema{"type": "string"}},
	})
	inputOp["parameters"] = append(inputOp["parameters"].([]schema), pathParam("input", "coal_production, fuel_consumption, electricity_consumption or employee_count"))

	clearOp := sessionOperation("Clear a calculator input", nil)
	clearOp["parameters"] = append(clearOp["parameters"].([]schema), pathParam("input", "Input to clear"))

	deleteOp := sessionOperation("Delete a calculator session", nil)
	deleteOp["responses"] = schema{
		"204": schema{"description": "Session deleted"},
		"404": jsonResponse("Session not found", ref("Error")),
	}

	return schema{
		"openapi": "3.0.0",
		"info": schema{
			"title":       "Emissions Platform API",
			"description": "Coal-mine emission aggregates, yearly series and the emission calculator",
			"version":     "1.0.0",
			"contact":     map[string]string{"name": "Emissions Platform Team"},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": schema{
			"/api/emissions/summary": schema{
				"get": schema{
					"summary":     "Emission totals",
					"description": "Carbon, methane, fuel and electricity totals with the per-entity breakdown. Carbon is derived as fuel plus electricity.",
					"responses":   schema{"200": jsonResponse("Summary", ref("Summary"))},
				},
			},
			"/api/emissions/table": schema{
				"get": schema{
					"summary": "Entity table",
					"parameters": []schema{
						metricParameter(),
						queryParam("page", "Page number (default: 1)", schema{"type": "integer", "default": 1}),
						queryParam("limit", "Records per page (default: 100)", schema{"type": "integer", "default": 100}),
					},
					"responses": schema{"200": jsonResponse("Table page", ref("TablePage"))},
				},
			},
			"/api/emissions/yearly": schema{
				"get": schema{
					"summary":    "Yearly series",
					"parameters": []schema{metricParameter()},
					"responses":  schema{"200": jsonResponse("Series with domain and magnitude labels", ref("YearlyView"))},
				},
			},
			"/api/emissions/yearly/chart": schema{
				"get": schema{
					"summary": "Yearly bar chart",
					"parameters": []schema{
						metricParameter(),
						queryParam("format", "svg (default) or png", schema{"type": "string", "enum": []string{"svg", "png"}}),
					},
					"responses": schema{
						"200": schema{
							"description": "Chart image",
							"content": schema{
								"image/svg+xml": schema{"schema": schema{"type": "string"}},
								"image/png":     schema{"schema": schema{"type": "string", "format": "binary"}},
							},
						},
						"400": jsonResponse("Unknown metric or format", ref("Error")),
						"404": jsonResponse("No yearly data", ref("Error")),
					},
				},
			},
			"/api/calculator/entities": schema{
				"get": schema{
					"summary": "Selectable entity names in first-seen order",
					"responses": schema{"200": jsonResponse("Entity names", schema{
						"type":       "object",
						"properties": schema{"entities": schema{"type": "array", "items": schema{"type": "string"}}},
					})},
				},
			},
			"/api/calculator/sessions": schema{
				"post": schema{
					"summary":   "Create a calculator session",
					"responses": schema{"201": jsonResponse("New session", ref("Session"))},
				},
			},
			"/api/calculator/sessions/{id}": schema{
				"get":    sessionOperation("Get a calculator session", nil),
				"delete": deleteOp,
			},
			"/api/calculator/sessions/{id}/inputs/{input}": schema{
				"put":    inputOp,
				"delete": clearOp,
			},
			"/api/calculator/sessions/{id}/entity": schema{
				"put": sessionOperation("Select the reference entity (empty name clears it)", schema{
					"type":       "object",
					"properties": schema{"name": schema{"type": "string"}},
				}),
			},
			"/health": schema{
				"get": schema{
					"summary": "Health check",
					"responses": schema{
						"200": jsonResponse("API is healthy", schema{"type": "object", "properties": schema{"status": schema{"type": "string"}}}),
						"503": schema{"description": "Storage is unreachable"},
					},
				},
			},
			"/metrics": schema{
				"get": schema{
					"summary": "Prometheus metrics",
					"responses": schema{
						"200": schema{
							"description": "Prometheus metrics in text format",
							"content":     schema{"text/plain": schema{"schema": schema{"type": "string"}}},
						},
					},
				},
			},
		},
		"components": schema{
			"schemas": schema{
				"Error": schema{
					"type": "object",
					"properties": schema{
						"error":   schema{"type": "string"},
						"message": schema{"type": "string"},
						"code":    schema{"type": "integer"},
					},
				},
				"Summary": schema{
					"type": "object",
					"properties": schema{
						"totalCarbonEmissions":      schema{"type": "number"},
						"totalMethaneEmissions":     schema{"type": "number"},
						"totalFuelEmissions":        schema{"type": "number"},
						"totalElectricityEmissions": schema{"type": "number"},
						"breakdown": schema{"type": "array", "items": schema{
							"type": "object",
							"properties": schema{
								"name":                 schema{"type": "string"},
								"fuel_emission":        schema{"type": "number"},
								"electricity_emission": schema{"type": "number"},
								"methane_emission":     schema{"type": "number"},
							},
						}},
						"millions": schema{"type": "object", "description": "The four totals divided by one million"},
					},
				},
				"TablePage": schema{
					"type": "object",
					"properties": schema{
						"data": schema{"type": "array", "items": schema{
							"type": "object",
							"properties": schema{
								"id":    schema{"type": "integer"},
								"name":  schema{"type": "string"},
								"value": schema{"type": "string", "description": "Formatted with thousands separators; empty for metrics outside the table"},
							},
						}},
						"metric":      schema{"type": "string"},
						"total":       schema{"type": "integer"},
						"page":        schema{"type": "integer"},
						"limit":       schema{"type": "integer"},
						"total_pages": schema{"type": "integer"},
					},
				},
				"YearlyView": schema{
					"type": "object",
					"properties": schema{
						"metric": schema{"type": "string"},
						"series": schema{"type": "array", "items": schema{"type": "object"}},
						"values": schema{"type": "array", "items": schema{"type": "number"}},
						"domain": schema{"type": "object", "properties": schema{
							"lower": schema{"type": "number"},
							"upper": schema{"type": "number"},
						}},
						"labels": schema{"type": "array", "items": schema{"type": "string"}},
					},
				},
				"Session": schema{
					"type": "object",
					"properties": schema{
						"id":     schema{"type": "string", "format": "uuid"},
						"inputs": schema{"type": "object", "additionalProperties": schema{"type": "string"}},
						"outputs": schema{"type": "object", "properties": schema{
							"total_emission":      cell,
							"per_capita_emission": cell,
							"carbon_credits":      cell,
						}},
						"recomputes":  schema{"type": "integer"},
						"created_at":  schema{"type": "string", "format": "date-time"},
						"last_active": schema{"type": "string", "format": "date-time"},
					},
				},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 document for the Emissions Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openAPIDocument())
}
