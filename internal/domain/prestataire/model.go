// Package prestataire models subcontractor records and the pure derivations
// the record browser applies to them (filtering, option lists, presentation tokens).
package prestataire

import "time"

// Status is the relationship status of a prestataire.
type Status string

const (
	StatusActif     Status = "Actif"
	StatusARelancer Status = "À relancer"
	StatusInactif   Status = "Inactif"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusActif, StatusARelancer, StatusInactif}
}

// ChantierStatus is the state of a job site.
type ChantierStatus string

const (
	ChantierEnCours  ChantierStatus = "En cours"
	ChantierPlanifie ChantierStatus = "Planifié"
	ChantierTermine  ChantierStatus = "Terminé"
)

// Channel is the medium used for a follow-up.
type Channel string

const (
	ChannelEmail     Channel = "Email"
	ChannelTelephone Channel = "Téléphone"
	ChannelSMS       Channel = "SMS"
	ChannelVisite    Channel = "Visite"
)

// Outcome is the result of a follow-up.
type Outcome string

const (
	OutcomeRepondu     Outcome = "Répondu"
	OutcomeSansReponse Outcome = "Sans réponse"
	OutcomeEnAttente   Outcome = "En attente"
)

// DocumentCategory classifies attached documents.
type DocumentCategory string

const (
	CategoryContrat     DocumentCategory = "Contrat"
	CategoryAssurance   DocumentCategory = "Assurance"
	CategoryDevis       DocumentCategory = "Devis"
	CategoryFacture     DocumentCategory = "Facture"
	CategoryAttestation DocumentCategory = "Attestation"
)

// Prestataire is a subcontractor record.
type Prestataire struct {
	ID        string `json:"id"         db:"id"`
	Company   string `json:"company"    db:"company"`
	Contact   string `json:"contact"    db:"contact"`
	Phone     string `json:"phone"      db:"phone"`
	Email     string `json:"email"      db:"email"`
	Specialty string `json:"specialty"  db:"specialty"`
	Address   string `json:"address"    db:"address"`
	SIRET     string `json:"siret,omitempty" db:"siret"`
	Status    Status `json:"status"     db:"status"`
	// ChantierCount is the advertised number of job sites; it is not checked against Chantiers.
	ChantierCount int       `json:"chantier_count" db:"chantier_count"`
	LastContact   time.Time `json:"last_contact"   db:"last_contact"`

	Chantiers []Chantier `json:"chantiers" db:"-"`
	Relances  []Relance  `json:"relances"  db:"-"`
	Documents []Document `json:"documents" db:"-"`
}

// Chantier is a job site the prestataire works on.
type Chantier struct {
	ID               string         `json:"id"                db:"id"`
	Name             string         `json:"name"              db:"name"`
	Status           ChantierStatus `json:"status"            db:"status"`
	Role             string         `json:"role"              db:"role"`
	LastIntervention time.Time      `json:"last_intervention" db:"last_intervention"`
}

// Relance is an outreach event.
type Relance struct {
	ID      string    `json:"id"      db:"id"`
	Date    time.Time `json:"date"    db:"date"`
	Channel Channel   `json:"channel" db:"channel"`
	Outcome Outcome   `json:"outcome" db:"outcome"`
	Note    string    `json:"note"    db:"note"`
}

// Document is an attached file.
type Document struct {
	ID       string           `json:"id"       db:"id"`
	Name     string           `json:"name"     db:"name"`
	Category DocumentCategory `json:"category" db:"category"`
	Date     time.Time        `json:"date"     db:"date"`
	// StorageKey locates the file in object storage. Empty means no file is attached.
	StorageKey string `json:"-" db:"storage_key"`
}

// HasFile reports whether the document has a stored file.
func (d Document) HasFile() bool { return d.StorageKey != "" }

// ChantierStatuses lists every job-site status.
func ChantierStatuses() []ChantierStatus {
	return []ChantierStatus{ChantierEnCours, ChantierPlanifie, ChantierTermine}
}

// Channels lists every follow-up channel.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelTelephone, ChannelSMS, ChannelVisite}
}

// Outcomes lists every follow-up outcome.
func Outcomes() []Outcome {
	return []Outcome{OutcomeRepondu, OutcomeSansReponse, OutcomeEnAttente}
}

// Categories lists every document category.
func Categories() []DocumentCategory {
	return []DocumentCategory{CategoryContrat, CategoryAssurance, CategoryDevis, CategoryFacture, CategoryAttestation}
}
