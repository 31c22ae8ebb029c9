// Package graph is the read-only GraphQL face of the settings store.
package graph

import (
	"fmt"

	"github.com/flow-hydraulics/flow-settings-api/settings"
	"github.com/graphql-go/graphql"
)

// NewSchema builds the query schema over store. There are no mutations,
// all writes go through the REST API.
func NewSchema(store settings.Store) (graphql.Schema, error) {
	settingsType := newSettingsType()

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"settings": &graphql.Field{
				Type: graphql.NewNonNull(settingsType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return store.Get(), nil
				},
			},
			"theme": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return store.Get().Theme, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

func newLanguageSettingsType() *graphql.Object {
	return graphql.NewObject(
		graphql.ObjectConfig{
			Name: "LanguageSettings",
			Fields: graphql.Fields{
				"language": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						l, ok := p.Source.(settings.LanguageSettings)
						if !ok {
							return nil, sourceError(p)
						}
						return l.Language, nil
					},
				},
			},
		})
}

func newNotificationSettingsType() *graphql.Object {
	return graphql.NewObject(
		graphql.ObjectConfig{
			Name: "NotificationSettings",
			Fields: graphql.Fields{
				"sms_notifications": &graphql.Field{
					Type: graphql.NewNonNull(graphql.Boolean),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						n, ok := p.Source.(settings.NotificationSettings)
						if !ok {
							return nil, sourceError(p)
						}
						return n.SMSNotifications, nil
					},
				},
				"email_notifications": &graphql.Field{
					Type: graphql.NewNonNull(graphql.Boolean),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						n, ok := p.Source.(settings.NotificationSettings)
						if !ok {
							return nil, sourceError(p)
						}
						return n.EmailNotifications, nil
					},
				},
			},
		})
}

func newSettingsType() *graphql.Object {
	languageSettingsType := newLanguageSettingsType()
	notificationSettingsType := newNotificationSettingsType()

	return graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Settings",
			Fields: graphql.Fields{
				"languageSettings": &graphql.Field{
					Type: graphql.NewNonNull(languageSettingsType),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						s, ok := p.Source.(settings.Settings)
						if !ok {
							return nil, sourceError(p)
						}
						return s.LanguageSettings, nil
					},
				},
				"notificationSettings": &graphql.Field{
					Type: graphql.NewNonNull(notificationSettingsType),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						s, ok := p.Source.(settings.Settings)
						if !ok {
							return nil, sourceError(p)
						}
						return s.NotificationSettings, nil
					},
				},
				"theme": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						s, ok := p.Source.(settings.Settings)
						if !ok {
							return nil, sourceError(p)
						}
						return s.Theme, nil
					},
				},
				"lastUpdated": &graphql.Field{
					Type: DateScalar,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						s, ok := p.Source.(settings.Settings)
						if !ok {
							return nil, sourceError(p)
						}
						if s.LastUpdated == nil {
							return nil, nil
						}
						return *s.LastUpdated, nil
					},
				},
			},
		})
}

func sourceError(p graphql.ResolveParams) error {
	return fmt.Errorf("unexpected source %T for field %s", p.Source, p.Info.FieldName)
}
