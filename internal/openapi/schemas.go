package openapi

import "github.com/getkin/kin-openapi/openapi3"

// componentSchemas returns the named schemas referenced from the paths.
func componentSchemas() openapi3.Schemas {
	return openapi3.Schemas{
		"ErrorResponse": object(openapi3.Schemas{
			"success": {Value: openapi3.NewBoolSchema()},
			"error": object(openapi3.Schemas{
				"code":    {Value: openapi3.NewInt32Schema()},
				"message": stringSchema("Human-readable message."),
				"context": {Value: openapi3.NewObjectSchema()},
			}, "code", "message"),
		}, "success", "error"),

		"PageMeta": object(openapi3.Schemas{
			"total":     {Value: openapi3.NewInt64Schema()},
			"page":      {Value: openapi3.NewInt32Schema()},
			"limit":     {Value: openapi3.NewInt32Schema()},
			"last_page": {Value: openapi3.NewInt32Schema()},
		}, "total", "page", "limit", "last_page"),

		"Principal": object(openapi3.Schemas{
			"username": {Value: openapi3.NewStringSchema()},
			"role":     enumSchema("admin"),
		}, "username", "role"),

		"LoginRequest": object(openapi3.Schemas{
			"username": {Value: openapi3.NewStringSchema().WithMinLength(1)},
			"password": {Value: openapi3.NewStringSchema().WithMinLength(1)},
		}, "username", "password"),

		"LoginResult": object(openapi3.Schemas{
			"access_token": stringSchema("HS256 JWT to send as a bearer token."),
			"token_type":   enumSchema("Bearer"),
			"expires_in":   {Value: openapi3.NewInt32Schema()},
			"expires_at":   {Value: openapi3.NewDateTimeSchema()},
			"user":         ref("Principal"),
		}, "access_token", "token_type", "expires_in", "expires_at", "user"),

		"ActivityLog": object(openapi3.Schemas{
			"id":           {Value: openapi3.NewInt64Schema()},
			"action":       stringSchema("Dotted action name, e.g. auth.login or post.created. The set is open."),
			"entity_type":  nullable(openapi3.NewStringSchema()),
			"entity_id":    nullable(openapi3.NewInt64Schema()),
			"entity_title": nullable(openapi3.NewStringSchema()),
			"actor":        {Value: openapi3.NewStringSchema()},
			"ip_address":   nullable(openapi3.NewStringSchema()),
			"metadata":     nullable(openapi3.NewObjectSchema()),
			"created_at":   {Value: openapi3.NewDateTimeSchema()},
		}, "id", "action", "actor", "created_at"),

		"PurgeResult": object(openapi3.Schemas{
			"deleted": {Value: openapi3.NewInt64Schema()},
			"days":    {Value: openapi3.NewInt32Schema()},
		}, "deleted", "days"),

		"Post": object(postProperties(true), "id", "title", "slug", "content", "category", "status"),

		"PostCreate": object(postProperties(false), "title", "content"),

		"PostUpdate": object(postProperties(false)),

		"Period": object(periodProperties(true), "id", "name", "year_start", "year_end", "is_active"),

		"PeriodCreate": object(periodProperties(false), "name", "year_start", "year_end"),

		"PeriodUpdate": object(periodProperties(false)),

		"Organization": object(organizationProperties(true), "id", "name", "social_media"),

		"OrganizationUpdate": object(organizationProperties(false)),
	}
}

func periodProperties(read bool) openapi3.Schemas {
	year := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: openapi3.NewInt32Schema().WithMin(1900).WithMax(2100)}
	}
	props := openapi3.Schemas{
		"name":        {Value: openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(100)},
		"year_start":  year(),
		"year_end":    year(),
		"is_active":   boolSchema("Activating a period deactivates every other one."),
		"description": nullable(openapi3.NewStringSchema()),
	}
	if read {
		props["id"] = &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}
		props["created_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		props["updated_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
	}
	return props
}

func organizationProperties(read bool) openapi3.Schemas {
	links := openapi3.NewObjectSchema()
	links.Description = "Network name to handle or URL, e.g. instagram: @bemfst. Replaces the stored links when sent."
	links.AdditionalProperties = openapi3.AdditionalProperties{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}}
	props := openapi3.Schemas{
		"name":         {Value: openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(255)},
		"description":  {Value: openapi3.NewStringSchema()},
		"address":      {Value: openapi3.NewStringSchema()},
		"email":        {Value: openapi3.NewStringSchema().WithFormat("email")},
		"phone":        {Value: openapi3.NewStringSchema()},
		"social_media": {Value: links},
	}
	if read {
		props["id"] = &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}
		props["created_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		props["updated_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
	}
	return props
}

// postProperties lists post fields. Server-managed fields are only included
// in the read shape.
func postProperties(read bool) openapi3.Schemas {
	props := openapi3.Schemas{
		"title":            {Value: openapi3.NewStringSchema().WithMinLength(5).WithMaxLength(255)},
		"excerpt":          {Value: openapi3.NewStringSchema()},
		"content":          {Value: openapi3.NewStringSchema().WithMinLength(10)},
		"category":         enumSchema("news", "event"),
		"status":           enumSchema("draft", "published"),
		"author":           {Value: openapi3.NewStringSchema().WithMaxLength(255)},
		"featured_image":   nullable(openapi3.NewStringSchema()),
		"meta_title":       {Value: openapi3.NewStringSchema()},
		"meta_description": {Value: openapi3.NewStringSchema()},
		"published_at":     nullable(openapi3.NewDateTimeSchema()),
	}
	if read {
		props["id"] = &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}
		props["slug"] = stringSchema("URL slug derived from the title.")
		props["created_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		props["updated_at"] = &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
	}
	return props
}

func object(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func stringSchema(description string) *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	s.Description = description
	return &openapi3.SchemaRef{Value: s}
}

func enumSchema(values ...string) *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return &openapi3.SchemaRef{Value: s}
}

func nullable(s *openapi3.Schema) *openapi3.SchemaRef {
	s.Nullable = true
	return &openapi3.SchemaRef{Value: s}
}

func boolSchema(description string) *openapi3.SchemaRef {
	s := openapi3.NewBoolSchema()
	s.Description = description
	return &openapi3.SchemaRef{Value: s}
}
