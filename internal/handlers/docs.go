package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Westmarch Almanac API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	offsetParam := map[string]interface{}{
		"name":        "offset",
		"in":          "query",
		"description": "In-game day offset from today (default: 0)",
		"required":    false,
		"schema":      map[string]interface{}{"type": "integer", "default": 0},
	}
	guildParam := map[string]interface{}{
		"name":        "guild_id",
		"in":          "path",
		"description": "Guild identifier",
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Westmarch Almanac API",
			"description": "Deterministic in-game calendar, weather and forecast service with per-guild settings and daily report publishing",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Westmarch Almanac Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/guilds/{guild_id}/date": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get the in-game date",
					"description": "Resolve today's in-game date (or an offset day) for the guild",
					"parameters":  []map[string]interface{}{guildParam, offsetParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"year":         map[string]string{"type": "integer"},
											"month":        map[string]string{"type": "integer"},
											"day":          map[string]string{"type": "integer"},
											"day_of_year":  map[string]string{"type": "integer"},
											"week":         map[string]string{"type": "integer"},
											"weekday":      map[string]string{"type": "integer"},
											"month_name":   map[string]string{"type": "string"},
											"weekday_name": map[string]string{"type": "string"},
											"season":       map[string]string{"type": "string"},
											"holiday":      map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid offset"},
					},
				},
			},
			"/api/guilds/{guild_id}/weather": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get the in-game weather",
					"description": "Deterministic weather for the guild's current (or offset) in-game day",
					"parameters":  []map[string]interface{}{guildParam, offsetParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"date":     map[string]interface{}{"type": "object"},
											"location": map[string]string{"type": "string"},
											"weather":  map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid offset"},
					},
				},
			},
			"/api/guilds/{guild_id}/forecast": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get the weather forecast",
					"description": "Forecast lines for the next N in-game days (max 10), with confidence labels",
					"parameters": []map[string]interface{}{
						guildParam,
						{
							"name":        "days",
							"in":          "query",
							"description": "Number of days to forecast (default: 10, max: 10)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 10},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "array",
										"items": map[string]interface{}{
											"type": "object",
											"properties": map[string]interface{}{
												"date":       map[string]interface{}{"type": "object"},
												"lead_days":  map[string]string{"type": "integer"},
												"confidence": map[string]string{"type": "string"},
												"predicted":  map[string]string{"type": "string"},
											},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid days parameter"},
					},
				},
			},
			"/api/guilds/{guild_id}/report": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Build today's daily report",
					"description": "Assemble the full daily report (date, weather, forecast) without publishing it",
					"parameters":  []map[string]interface{}{guildParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
					},
				},
			},
			"/api/guilds/{guild_id}/reports": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List published reports",
					"description": "Page through the guild's published daily report log",
					"parameters": []map[string]interface{}{
						guildParam,
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 30, max: 365)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 30, "maximum": 365, "minimum": 1},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"400": map[string]interface{}{"description": "Out-of-range page or limit"},
					},
				},
			},
			"/api/guilds/{guild_id}/settings": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get guild settings",
					"description": "Current calendar settings for the guild, or defaults if none are stored",
					"parameters":  []map[string]interface{}{guildParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
					},
				},
				"put": map[string]interface{}{
					"summary":     "Update guild settings",
					"description": "Replace the guild's calendar settings (epoch anchor, location, name lists, autopost channel)",
					"parameters":  []map[string]interface{}{guildParam},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"epoch_real_date":     map[string]string{"type": "string", "format": "date"},
										"epoch_day_number":    map[string]string{"type": "integer"},
										"location":            map[string]string{"type": "string"},
										"show_weekday":        map[string]string{"type": "boolean"},
										"month_names":         map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
										"weekday_names":       map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
										"autopost_channel_id": map[string]string{"type": "string"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Settings updated"},
						"400": map[string]interface{}{"description": "Invalid settings payload"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Service health status",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
