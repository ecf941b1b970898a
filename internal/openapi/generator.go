package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Title is the document title served at /openapi.json.
const Title = "BEM FST Portal API"

// APIPrefix is the path prefix for every versioned route.
const APIPrefix = "/api/v1"

// Generate builds the OpenAPI 3.1 document for the portal API.
func Generate(baseURL, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       Title,
			Description: "Admin authentication, activity log, news/event posts, board periods and the organization profile for the BEM FST website.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
				Description:  "Token returned by POST /api/v1/auth/login.",
			},
		},
	}
	doc.Components = &components
	doc.Paths = openapi3.NewPaths()

	addHealthPaths(doc)
	addAuthPaths(doc)
	addActivityPaths(doc)
	addPostPaths(doc)
	addPeriodPaths(doc)
	addOrganizationPaths(doc)

	return doc
}

func addHealthPaths(doc *openapi3.T) {
	status := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"status": stringSchema("ok, ready, or unavailable"),
		},
	}}
	doc.Paths.Set("/healthz", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Liveness check",
		OperationID: "healthz",
		Security:    public(),
		Responses:   newResponses("200", "Process is up", status),
	}})
	doc.Paths.Set("/readyz", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Readiness check",
		Description: "Pings the database and, when configured, the rate-limit Redis.",
		OperationID: "readyz",
		Security:    public(),
		Responses:   withError(newResponses("200", "Dependencies reachable", status), "503", "Dependency unavailable"),
	}})
}

func addAuthPaths(doc *openapi3.T) {
	login := &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Exchange admin credentials for a bearer token",
		OperationID: "login",
		Security:    public(),
		RequestBody: jsonBody("Admin credentials", ref("LoginRequest")),
		Responses: withError(
			newResponses("200", "Login successful", envelope(ref("LoginResult"), false)),
			"429", "Too many login attempts",
		),
	}
	doc.Paths.Set(APIPrefix+"/auth/login", &openapi3.PathItem{Post: login})

	doc.Paths.Set(APIPrefix+"/auth/logout", &openapi3.PathItem{Post: &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Revoke the presented token",
		OperationID: "logout",
		Security:    bearer(),
		Responses:   newResponses("200", "Logged out", envelope(nil, false)),
	}})

	doc.Paths.Set(APIPrefix+"/auth/me", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"auth"},
		Summary:     "Identity carried by the token",
		OperationID: "me",
		Security:    bearer(),
		Responses:   newResponses("200", "Current admin", envelope(ref("Principal"), false)),
	}})
}

func addActivityPaths(doc *openapi3.T) {
	doc.Paths.Set(APIPrefix+"/activity-logs", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"activity"},
		Summary:     "List activity log entries, newest first",
		OperationID: "listActivityLogs",
		Security:    bearer(),
		Parameters: openapi3.Parameters{
			queryInt("page", "1-based page number. Values below 1 are treated as 1.", 1),
			queryInt("limit", "Entries per page, capped at 100.", 30),
		},
		Responses: newResponses("200", "One page of entries",
			envelope(arrayOf(ref("ActivityLog")), true)),
	}})

	doc.Paths.Set(APIPrefix+"/activity-logs/clear-old", &openapi3.PathItem{Delete: &openapi3.Operation{
		Tags:        []string{"activity"},
		Summary:     "Delete entries older than the retention period",
		OperationID: "clearOldActivityLogs",
		Security:    bearer(),
		Parameters: openapi3.Parameters{
			queryInt("days", "Delete entries older than this many days. Must be at least 1.", 180),
		},
		Responses: newResponses("200", "Old entries deleted", envelope(ref("PurgeResult"), false)),
	}})
}

func addPostPaths(doc *openapi3.T) {
	doc.Paths.Set(APIPrefix+"/posts", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "List posts, newest first",
			OperationID: "listPosts",
			Security:    public(),
			Parameters: openapi3.Parameters{
				queryInt("page", "1-based page number.", 1),
				queryInt("limit", "Posts per page, between 1 and 100.", 6),
				queryEnum("status", "Only posts with this status.", "draft", "published"),
			},
			Responses: newResponses("200", "One page of posts", envelope(arrayOf(ref("Post")), true)),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "Create a post",
			OperationID: "createPost",
			Security:    bearer(),
			RequestBody: jsonBody("New post", ref("PostCreate")),
			Responses: withError(
				newResponses("201", "Post created", envelope(ref("Post"), false)),
				"409", "A post with the same slug exists",
			),
		},
	})

	doc.Paths.Set(APIPrefix+"/posts/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam()},
		Get: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "Get a post by ID",
			OperationID: "getPost",
			Security:    public(),
			Responses:   newResponses("200", "The post", envelope(ref("Post"), false)),
		},
		Patch: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "Update a post",
			Description: "Only the supplied fields change. A new title regenerates the slug.",
			OperationID: "updatePost",
			Security:    bearer(),
			RequestBody: jsonBody("Fields to change", ref("PostUpdate")),
			Responses: withError(
				newResponses("200", "Post updated", envelope(ref("Post"), false)),
				"409", "A post with the same slug exists",
			),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "Delete a post",
			OperationID: "deletePost",
			Security:    bearer(),
			Responses:   newResponses("200", "Post deleted", envelope(nil, false)),
		},
	})

	slug := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("slug").
		WithSchema(openapi3.NewStringSchema())}
	doc.Paths.Set(APIPrefix+"/posts/slug/{slug}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{slug},
		Get: &openapi3.Operation{
			Tags:        []string{"posts"},
			Summary:     "Get a post by slug",
			OperationID: "getPostBySlug",
			Security:    public(),
			Responses:   newResponses("200", "The post", envelope(ref("Post"), false)),
		},
	})
}

func addPeriodPaths(doc *openapi3.T) {
	doc.Paths.Set(APIPrefix+"/periods", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"periods"},
			Summary:     "List periods, most recent first",
			OperationID: "listPeriods",
			Security:    public(),
			Responses:   newResponses("200", "Every period", envelope(arrayOf(ref("Period")), false)),
		},
		Post: &openapi3.Operation{
			Tags:        []string{"periods"},
			Summary:     "Create a period",
			OperationID: "createPeriod",
			Security:    bearer(),
			RequestBody: jsonBody("New period", ref("PeriodCreate")),
			Responses:   newResponses("201", "Period created", envelope(ref("Period"), false)),
		},
	})

	doc.Paths.Set(APIPrefix+"/periods/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam()},
		Get: &openapi3.Operation{
			Tags:        []string{"periods"},
			Summary:     "Get a period by ID",
			OperationID: "getPeriod",
			Security:    public(),
			Responses:   newResponses("200", "The period", envelope(ref("Period"), false)),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"periods"},
			Summary:     "Update a period",
			Description: "Only the supplied fields change.",
			OperationID: "updatePeriod",
			Security:    bearer(),
			RequestBody: jsonBody("Fields to change", ref("PeriodUpdate")),
			Responses:   newResponses("200", "Period updated", envelope(ref("Period"), false)),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"periods"},
			Summary:     "Delete a period",
			OperationID: "deletePeriod",
			Security:    bearer(),
			Responses:   newResponses("200", "Period deleted", envelope(nil, false)),
		},
	})
}

func addOrganizationPaths(doc *openapi3.T) {
	doc.Paths.Set(APIPrefix+"/organization", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"organization"},
			Summary:     "Get the main organization profile",
			OperationID: "getOrganization",
			Security:    public(),
			Responses:   newResponses("200", "The profile", envelope(ref("Organization"), false)),
		},
	})

	doc.Paths.Set(APIPrefix+"/organization/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam()},
		Get: &openapi3.Operation{
			Tags:        []string{"organization"},
			Summary:     "Get an organization profile by ID",
			OperationID: "getOrganizationById",
			Security:    public(),
			Responses:   newResponses("200", "The profile", envelope(ref("Organization"), false)),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"organization"},
			Summary:     "Update an organization profile",
			Description: "Only the supplied fields change.",
			OperationID: "updateOrganization",
			Security:    bearer(),
			RequestBody: jsonBody("Fields to change", ref("OrganizationUpdate")),
			Responses:   newResponses("200", "Profile updated", envelope(ref("Organization"), false)),
		},
	})
}

// ─── Operation Helpers ──────────────────────────────────────────────────────

func idParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").
		WithSchema(openapi3.NewInt64Schema())}
}

func bearer() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"bearerAuth": {}}}
}

// public marks an operation that needs no token.
func public() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{}
}

func jsonBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func queryInt(name, description string, def int) *openapi3.ParameterRef {
	s := openapi3.NewIntegerSchema()
	s.Default = def
	p := openapi3.NewQueryParameter(name).WithSchema(s)
	p.Description = description
	return &openapi3.ParameterRef{Value: p}
}

func queryEnum(name, description string, values ...string) *openapi3.ParameterRef {
	s := openapi3.NewStringSchema()
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	p := openapi3.NewQueryParameter(name).WithSchema(s)
	p.Description = description
	return &openapi3.ParameterRef{Value: p}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// newResponses builds the success response plus the error responses every
// route can return.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	withError(responses, "400", "Bad request")
	withError(responses, "401", "Invalid or missing authentication token")
	withError(responses, "404", "Not found")
	withError(responses, "429", "Too many requests")
	withError(responses, "500", "Internal server error")
	return responses
}

func withError(responses *openapi3.Responses, statusCode, description string) *openapi3.Responses {
	desc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref("ErrorResponse")),
		},
	})
	return responses
}

// envelope wraps data in the success envelope. A nil data schema documents
// a response with only success and message.
func envelope(data *openapi3.SchemaRef, paged bool) *openapi3.SchemaRef {
	props := openapi3.Schemas{
		"success": {Value: openapi3.NewBoolSchema()},
		"message": {Value: openapi3.NewStringSchema()},
	}
	if data != nil {
		props["data"] = data
	}
	if paged {
		props["meta"] = ref("PageMeta")
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   []string{"success"},
	}}
}

// ─── Naming Helpers ─────────────────────────────────────────────────────────

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(fmt.Sprintf("#/components/schemas/%s", name), nil)
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: items,
	}}
}
