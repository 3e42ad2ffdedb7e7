package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/config"
	"github.com/devotee-memorial/backend/internal/logger"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log the sample profiles without storing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profiles := sampleProfiles()
	if *dryRun {
		for _, p := range profiles {
			p.Derive()
			log.WithFields(logrus.Fields{"name": p.Name, "years": p.Years}).Info("would seed profile")
		}
		return
	}

	stores, err := services.OpenStores(ctx, cfg.Mongo, cfg.Server.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to open stores")
	}
	defer stores.Close(context.Background())

	svc := services.NewProfileService(stores.Profiles, nil, cfg.Validation, cfg.Media.RootFolder, log)
	for _, p := range profiles {
		saved, err := svc.Import(ctx, p)
		if err != nil {
			log.WithError(err).WithField("name", p.Name).Fatal("failed to seed profile")
		}
		log.WithFields(logrus.Fields{"id": saved.ID, "name": saved.Name, "backend": stores.Backend}).Info("seeded profile")
	}
}

func date(s string) time.Time {
	t, err := services.ParseCalendarDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleProfiles() []*models.Profile {
	return []*models.Profile{
		{
			Name:             "Srila Prabhupada",
			Honorific:        "His Divine Grace",
			BirthDate:        date("1896-09-01"),
			DeathDate:        date("1977-11-14"),
			Location:         "Vrindavan, India",
			Description:      "Founder-Acharya of the International Society for Krishna Consciousness (ISKCON). He first met his spiritual master, Srila Bhaktisiddhanta Sarasvati Gosvami, in Calcutta in 1922.",
			CoverImage:       "https://upload.wikimedia.org/wikipedia/commons/thumb/2/23/Bhaktivedanta_Swami_Prabhupada_in_1975_at_Varsana_dhama.jpg/220px-Bhaktivedanta_Swami_Prabhupada_in_1975_at_Varsana_dhama.jpg",
			ContributorName:  "Admin",
			ContributorPhone: "1234567890",
			Status:           models.ProfileStatusAccepted,
			SpiritualMaster:  "Bhaktisiddhanta Sarasvati Thakura",
			AssociatedTemple: "ISKCON Vrindavan",
			MemorialLocation: "Vrindavan, India",
		},
		{
			Name:             "Bhaktisiddhanta Sarasvati",
			Honorific:        "Srila",
			BirthDate:        date("1874-02-06"),
			DeathDate:        date("1937-01-01"),
			Location:         "Mayapur, India",
			Description:      "Spiritual master of Srila Prabhupada and a great Vaishnava acharya. He established the Gaudiya Math and preached Krishna consciousness throughout India.",
			CoverImage:       "https://upload.wikimedia.org/wikipedia/commons/thumb/8/8f/Bhaktisiddhanta_Sarasvati.jpg/220px-Bhaktisiddhanta_Sarasvati.jpg",
			ContributorName:  "Admin",
			ContributorPhone: "1234567890",
			Status:           models.ProfileStatusAccepted,
			SpiritualMaster:  "Gaurakisora Dasa Babaji",
			AssociatedTemple: "Gaudiya Math",
			MemorialLocation: "Mayapur, India",
		},
		{
			Name:             "HH Radhanath Swami",
			Honorific:        "His Holiness",
			BirthDate:        date("1950-12-07"),
			DeathDate:        date("2023-08-01"),
			Location:         "Vrindavan, India",
			Description:      "A great devotee...",
			ContributorName:  "Admin",
			ContributorPhone: "9999999999",
			Status:           models.ProfileStatusAccepted,
			SpiritualMaster:  "Srila Prabhupada",
			AssociatedTemple: "ISKCON Mumbai",
		},
	}
}
