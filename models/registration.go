package models

import "time"

// WizardStep is a screen of the registration flow.
type WizardStep string

const (
	StepTemplate  WizardStep = "template"
	StepPlatforms WizardStep = "platforms"
	StepLinks     WizardStep = "links"
	StepIdentity  WizardStep = "identity"
	StepComplete  WizardStep = "complete"
)

// AdditionalLink is a free-form link outside the supported platforms.
type AdditionalLink struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

// RegistrationIdentity is the basic identity entered on the last step.
type RegistrationIdentity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	// UsernameConfirmed is set once the directory reported Username as free.
	UsernameConfirmed bool `json:"usernameConfirmed"`
}

// RegistrationWizardState is the accumulated input of the registration flow.
type RegistrationWizardState struct {
	SessionID       string               `json:"sessionId"`
	Step            WizardStep           `json:"step"`
	TemplateID      string               `json:"templateId,omitempty"`
	Platforms       []Platform           `json:"platforms"`
	Links           SocialMediaProfile   `json:"links"`
	AdditionalLinks []AdditionalLink     `json:"additionalLinks"`
	Identity        RegistrationIdentity `json:"identity"`
	CompanyID       string               `json:"companyId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// UserData is the profile summary stored for an owner after registration.
type UserData struct {
	OwnerID     string    `json:"ownerId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	CompanyID   string    `json:"companyId"`
	CreatedAt   time.Time `json:"createdAt"`
}
