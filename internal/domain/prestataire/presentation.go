package prestataire

// Badge is a presentation token: a short label plus the CSS modifier used to color it.
type Badge struct {
	Label string
	Class string
}

const neutralClass = "badge-neutral"

// StatusBadge maps a status to its badge.
func StatusBadge(s Status) Badge {
	switch s {
	case StatusActif:
		return Badge{Label: string(s), Class: "badge-success"}
	case StatusARelancer:
		return Badge{Label: string(s), Class: "badge-warning"}
	case StatusInactif:
		return Badge{Label: string(s), Class: "badge-muted"}
	default:
		return Badge{Label: string(s), Class: neutralClass}
	}
}

// ChantierStatusBadge maps a job-site status to its badge.
func ChantierStatusBadge(s ChantierStatus) Badge {
	switch s {
	case ChantierEnCours:
		return Badge{Label: string(s), Class: "badge-info"}
	case ChantierPlanifie:
		return Badge{Label: string(s), Class: "badge-warning"}
	case ChantierTermine:
		return Badge{Label: string(s), Class: "badge-muted"}
	default:
		return Badge{Label: string(s), Class: neutralClass}
	}
}

// OutcomeBadge maps a follow-up outcome to its badge.
func OutcomeBadge(o Outcome) Badge {
	switch o {
	case OutcomeRepondu:
		return Badge{Label: string(o), Class: "badge-success"}
	case OutcomeSansReponse:
		return Badge{Label: string(o), Class: "badge-danger"}
	case OutcomeEnAttente:
		return Badge{Label: string(o), Class: "badge-warning"}
	default:
		return Badge{Label: string(o), Class: neutralClass}
	}
}

// ChannelIcon maps a follow-up channel to its icon name.
func ChannelIcon(c Channel) string {
	switch c {
	case ChannelEmail:
		return "mail"
	case ChannelTelephone:
		return "phone"
	case ChannelSMS:
		return "message-square"
	case ChannelVisite:
		return "map-pin"
	default:
		return "circle"
	}
}

// CategoryIcon maps a document category to its icon name.
func CategoryIcon(c DocumentCategory) string {
	switch c {
	case CategoryContrat:
		return "file-signature"
	case CategoryAssurance:
		return "shield"
	case CategoryDevis:
		return "file-text"
	case CategoryFacture:
		return "receipt"
	case CategoryAttestation:
		return "badge-check"
	default:
		return "file"
	}
}
