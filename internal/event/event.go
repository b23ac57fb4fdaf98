// Package event builds the analytics events sent by the streaming protocol.
//
// Every group of an Event is always serialized, and unset values are explicit nulls:
// the collector relies on a stable payload shape.
package event

// UserData is the user context of an event.
type UserData struct {
	UserSource string `json:"user_source"`
}

// SessionData is the session context of an event.
type SessionData struct {
	SessionSource string  `json:"session_source"`
	UserID        *string `json:"user_id"`
}

// Page is the page context of an event. Its fields are inlined at the top level of the payload.
type Page struct {
	PageDate *string        `json:"page_date"`
	PageID   string         `json:"page_id"`
	PageData map[string]any `json:"page_data"`
}

// Consent holds the consent flags of an event.
type Consent struct {
	ConsentType            *string `json:"consent_type" mapstructure:"consent_type"`
	RespectConsentMode     *string `json:"respect_consent_mode" mapstructure:"respect_consent_mode"`
	AdUserData             *string `json:"ad_user_data" mapstructure:"ad_user_data"`
	AdPersonalization      *string `json:"ad_personalization" mapstructure:"ad_personalization"`
	AdStorage              *string `json:"ad_storage" mapstructure:"ad_storage"`
	AnalyticsStorage       *string `json:"analytics_storage" mapstructure:"analytics_storage"`
	FunctionalityStorage   *string `json:"functionality_storage" mapstructure:"functionality_storage"`
	PersonalizationStorage *string `json:"personalization_storage" mapstructure:"personalization_storage"`
	SecurityStorage        *string `json:"security_storage" mapstructure:"security_storage"`
}

// Runtime is the tag manager metadata of an event. The collector fills it, so it is sent empty.
type Runtime struct {
	CSHostname               *string `json:"cs_hostname"`
	CSContainerID            *string `json:"cs_container_id"`
	CSTagName                *string `json:"cs_tag_name"`
	CSTagID                  *string `json:"cs_tag_id"`
	SSHostname               *string `json:"ss_hostname"`
	SSContainerID            *string `json:"ss_container_id"`
	SSTagName                *string `json:"ss_tag_name"`
	SSTagID                  *string `json:"ss_tag_id"`
	ProcessingEventTimestamp *int64  `json:"processing_event_timestamp"`
	ContentLength            *int64  `json:"content_length"`
}

// Event is a single analytics event, as accepted by the collector endpoint.
type Event struct {
	UserData    UserData    `json:"user_data"`
	SessionData SessionData `json:"session_data"`

	Page

	EventDate      string         `json:"event_date"`
	EventTimestamp int64          `json:"event_timestamp"`
	EventID        string         `json:"event_id"`
	EventName      string         `json:"event_name"`
	EventOrigin    string         `json:"event_origin"`
	EventData      map[string]any `json:"event_data"`
	Ecommerce      map[string]any `json:"ecommerce"`
	ConsentData    Consent        `json:"consent_data"`
	GTMData        Runtime        `json:"gtm_data"`
}
