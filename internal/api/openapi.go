package api

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the website routes.
func buildOpenAPIDoc(service string, withLogs bool) map[string]any {
	jsonResponse := func(description, schema string) map[string]any {
		return map[string]any{
			"200": map[string]any{
				"description": description,
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{"$ref": "#/components/schemas/" + schema},
					},
				},
			},
		}
	}

	paths := map[string]any{
		"/healthz": map[string]any{
			"get": map[string]any{
				"summary":   "Liveness and basic counters",
				"responses": jsonResponse("Service is up", "Healthz"),
			},
		},
		"/commands": map[string]any{
			"get": map[string]any{
				"summary":   "List registered commands in match order",
				"responses": jsonResponse("Registered commands", "Commands"),
			},
		},
		"/events": map[string]any{
			"get": map[string]any{
				"summary": "Server-sent stream of command events",
				"responses": map[string]any{
					"200": map[string]any{"description": "text/event-stream"},
				},
			},
		},
	}
	if withLogs {
		paths["/logs"] = map[string]any{
			"get": map[string]any{
				"summary":  "Recent command executions, newest first",
				"security": []any{map[string]any{"BearerAuth": []any{}}},
				"parameters": []any{
					queryParam("limit", "integer"),
					queryParam("channel_id", "string"),
					queryParam("command", "string"),
				},
				"responses": jsonResponse("Execution records", "Logs"),
			},
		}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   service,
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
			"schemas": map[string]any{
				"Healthz":  map[string]any{"type": "object"},
				"Commands": map[string]any{"type": "object"},
				"Logs":     map[string]any{"type": "object"},
			},
		},
	}
}

func queryParam(name, typ string) map[string]any {
	return map[string]any{
		"name":     name,
		"in":       "query",
		"required": false,
		"schema":   map[string]any{"type": typ},
	}
}
