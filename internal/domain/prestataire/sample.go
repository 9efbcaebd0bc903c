package prestataire

import "time"

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

// SampleCatalog returns the compiled-in demonstration records.
// Each call returns a fresh copy so callers may modify it freely.
func SampleCatalog() []Prestataire {
	return []Prestataire{
		{
			ID:            "p-001",
			Company:       "Plomberie Duval",
			Contact:       "Jean Duval",
			Phone:         "04 72 10 20 30",
			Email:         "contact@plomberie-duval.fr",
			Specialty:     "Plomberie",
			Address:       "12 rue des Tanneurs, 69003 Lyon",
			SIRET:         "812 345 678 00012",
			Status:        StatusActif,
			ChantierCount: 2,
			LastContact:   day(2024, time.March, 4),
			Chantiers: []Chantier{
				{ID: "c-101", Name: "Résidence Les Tilleuls", Status: ChantierEnCours, Role: "Plomberie sanitaire", LastIntervention: day(2024, time.March, 1)},
				{ID: "c-102", Name: "Groupe scolaire Jean Macé", Status: ChantierTermine, Role: "Réseaux eau chaude", LastIntervention: day(2023, time.November, 17)},
			},
			Relances: []Relance{
				{ID: "r-1001", Date: day(2024, time.February, 12), Channel: ChannelEmail, Outcome: OutcomeRepondu, Note: "Devis complémentaire reçu"},
				{ID: "r-1002", Date: day(2024, time.March, 4), Channel: ChannelTelephone, Outcome: OutcomeRepondu, Note: "Planning avril confirmé"},
			},
			Documents: []Document{
				{ID: "d-1001", Name: "Contrat cadre 2024", Category: CategoryContrat, Date: day(2024, time.January, 8), StorageKey: "p-001/contrat-cadre-2024.pdf"},
				{ID: "d-1002", Name: "Attestation décennale", Category: CategoryAssurance, Date: day(2024, time.January, 15), StorageKey: "p-001/attestation-decennale.pdf"},
			},
		},
		{
			ID:            "p-002",
			Company:       "Électricité Martin & Fils",
			Contact:       "Sophie Martin",
			Phone:         "04 78 55 66 77",
			Email:         "s.martin@elec-martin.fr",
			Specialty:     "Électricité",
			Address:       "8 avenue Berthelot, 69007 Lyon",
			SIRET:         "798 112 443 00027",
			Status:        StatusActif,
			ChantierCount: 3,
			LastContact:   day(2024, time.February, 27),
			Chantiers: []Chantier{
				{ID: "c-101", Name: "Résidence Les Tilleuls", Status: ChantierEnCours, Role: "Courants forts", LastIntervention: day(2024, time.February, 26)},
				{ID: "c-103", Name: "Bureaux Part-Dieu", Status: ChantierPlanifie, Role: "Éclairage", LastIntervention: day(2024, time.January, 30)},
				{ID: "c-104", Name: "Maison Girard", Status: ChantierTermine, Role: "Mise aux normes", LastIntervention: day(2023, time.October, 5)},
			},
			Relances: []Relance{
				{ID: "r-2001", Date: day(2024, time.February, 27), Channel: ChannelEmail, Outcome: OutcomeEnAttente, Note: "Relance attestation URSSAF"},
			},
			Documents: []Document{
				{ID: "d-2001", Name: "Devis Bureaux Part-Dieu", Category: CategoryDevis, Date: day(2024, time.January, 22)},
				{ID: "d-2002", Name: "Facture 2023-118", Category: CategoryFacture, Date: day(2023, time.December, 1)},
			},
		},
		{
			ID:            "p-003",
			Company:       "Maçonnerie Bernard",
			Contact:       "Luc Bernard",
			Phone:         "04 74 21 09 88",
			Email:         "luc.bernard@maconnerie-bernard.fr",
			Specialty:     "Maçonnerie",
			Address:       "3 chemin du Moulin, 38200 Vienne",
			Status:        StatusARelancer,
			ChantierCount: 1,
			LastContact:   day(2023, time.December, 18),
			Chantiers: []Chantier{
				{ID: "c-103", Name: "Bureaux Part-Dieu", Status: ChantierPlanifie, Role: "Gros œuvre", LastIntervention: day(2023, time.December, 11)},
			},
			Relances: []Relance{
				{ID: "r-3001", Date: day(2023, time.December, 18), Channel: ChannelTelephone, Outcome: OutcomeSansReponse, Note: "Messagerie"},
				{ID: "r-3002", Date: day(2024, time.January, 9), Channel: ChannelSMS, Outcome: OutcomeSansReponse},
			},
		},
		{
			ID:          "p-004",
			Company:     "Toitures du Rhône",
			Contact:     "Claire Petit",
			Phone:       "04 72 40 12 12",
			Email:       "claire@toitures-rhone.fr",
			Specialty:   "Couverture",
			Address:     "45 quai Perrache, 69002 Lyon",
			SIRET:       "521 998 004 00019",
			Status:      StatusInactif,
			LastContact: day(2023, time.June, 2),
		},
		{
			ID:            "p-005",
			Company:       "ElecPro Services",
			Contact:       "Karim Haddad",
			Phone:         "06 12 34 56 78",
			Email:         "k.haddad@elecpro.fr",
			Specialty:     "Électricité",
			Address:       "17 rue Paul Bert, 69100 Villeurbanne",
			Status:        StatusARelancer,
			ChantierCount: 0,
			LastContact:   day(2024, time.January, 19),
			Relances: []Relance{
				{ID: "r-5001", Date: day(2024, time.January, 19), Channel: ChannelVisite, Outcome: OutcomeEnAttente, Note: "Présentation sur site"},
			},
			Documents: []Document{
				{ID: "d-5001", Name: "Attestation Kbis", Category: CategoryAttestation, Date: day(2024, time.January, 19)},
			},
		},
		{
			ID:            "p-006",
			Company:       "Menuiserie Leroy",
			Contact:       "Paul Leroy",
			Phone:         "04 77 33 44 55",
			Email:         "atelier@menuiserie-leroy.fr",
			Specialty:     "Menuiserie",
			Address:       "2 place Jean Jaurès, 42000 Saint-Étienne",
			SIRET:         "443 210 765 00034",
			Status:        StatusActif,
			ChantierCount: 1,
			LastContact:   day(2024, time.March, 11),
			Chantiers: []Chantier{
				{ID: "c-104", Name: "Maison Girard", Status: ChantierEnCours, Role: "Menuiseries extérieures", LastIntervention: day(2024, time.March, 8)},
			},
			Documents: []Document{
				{ID: "d-6001", Name: "Contrat sous-traitance", Category: CategoryContrat, Date: day(2024, time.February, 2)},
			},
		},
	}
}
