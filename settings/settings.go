package settings

import (
	"fmt"
	"time"
)

const (
	DefaultLanguage           = "en"
	DefaultSMSNotifications   = true
	DefaultEmailNotifications = false
	DefaultTheme              = "light"
)

type LanguageSettings struct {
	Language string `json:"language"`
}

type NotificationSettings struct {
	SMSNotifications   bool `json:"sms_notifications"`
	EmailNotifications bool `json:"email_notifications"`
}

// Settings is the settings record.
type Settings struct {
	LanguageSettings     LanguageSettings     `json:"languageSettings"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	Theme                string               `json:"theme"`
	// LastUpdated is nil until the first update carrying a recognized field.
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Defaults returns the record a fresh store starts with.
func Defaults() Settings {
	return Settings{
		LanguageSettings: LanguageSettings{
			Language: DefaultLanguage,
		},
		NotificationSettings: NotificationSettings{
			SMSNotifications:   DefaultSMSNotifications,
			EmailNotifications: DefaultEmailNotifications,
		},
		Theme: DefaultTheme,
	}
}

func (s Settings) String() string {
	return fmt.Sprintf(
		"Language: %s, SMS: %t, Email: %t, Theme: %s",
		s.LanguageSettings.Language,
		s.NotificationSettings.SMSNotifications,
		s.NotificationSettings.EmailNotifications,
		s.Theme,
	)
}

// clone returns a copy that shares no memory with s.
func (s Settings) clone() Settings {
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		s.LastUpdated = &t
	}
	return s
}

type LanguageSettingsUpdate struct {
	Language *string `json:"language,omitempty"`
}

type NotificationSettingsUpdate struct {
	SMSNotifications   *bool `json:"sms_notifications,omitempty"`
	EmailNotifications *bool `json:"email_notifications,omitempty"`
}

// Update is a partial settings record. Nil fields are left untouched when
// applied.
type Update struct {
	LanguageSettings     *LanguageSettingsUpdate     `json:"languageSettings,omitempty"`
	NotificationSettings *NotificationSettingsUpdate `json:"notificationSettings,omitempty"`
	Theme                *string                     `json:"theme,omitempty"`
}

// Fields returns the names of the top-level fields u carries, in record order.
// An empty theme is not a recognized field.
func (u Update) Fields() []string {
	fields := make([]string, 0, 3)
	if u.LanguageSettings != nil {
		fields = append(fields, "languageSettings")
	}
	if u.NotificationSettings != nil {
		fields = append(fields, "notificationSettings")
	}
	if u.Theme != nil && *u.Theme != "" {
		fields = append(fields, "theme")
	}
	return fields
}

// IsEmpty reports whether u carries no recognized field.
func (u Update) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Apply merges u into s field by field and reports whether any recognized
// field was present. lastUpdated is not touched here.
func (s *Settings) Apply(u Update) bool {
	if l := u.LanguageSettings; l != nil {
		if l.Language != nil {
			s.LanguageSettings.Language = *l.Language
		}
	}

	if n := u.NotificationSettings; n != nil {
		if n.SMSNotifications != nil {
			s.NotificationSettings.SMSNotifications = *n.SMSNotifications
		}
		if n.EmailNotifications != nil {
			s.NotificationSettings.EmailNotifications = *n.EmailNotifications
		}
	}

	if u.Theme != nil && *u.Theme != "" {
		s.Theme = *u.Theme
	}

	return !u.IsEmpty()
}
