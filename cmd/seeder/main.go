// cmd/seeder/main.go
package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/faststart/inviter-backend/internal/config"
	"github.com/faststart/inviter-backend/internal/db"
	"github.com/faststart/inviter-backend/internal/model"
)

// Five stock invite variations with spintax. Stored as one template, one
// variation per "---"-separated block.
var stockVariations = []string{
	"Hey {{first_name}}, hope you're having a {great|wonderful|fantastic} day! Quick question. I recently {ran across|came across|found} a {project|business project|business model} that looks like it could be pretty {lucrative|profitable}. Would you be open to {taking a peek|checking it out|taking a look}? No worries {if not|if it's not for you}, just let me know.",
	"Hey {{first_name}}, hope you're doing well. This might not be for you, but you came to mind when I saw it, so {wanted to touch base|thought I'd reach out} just in case. It's an online {marketing|business} project, different from anything I've seen before, and looks like it could be a pretty {solid money maker|good income stream|great cash flow generator}. Does that sound like something you'd be open to {taking a look at|checking out}?",
	"Hi {{first_name}}, hope {all is well in your world|everything's going great|life is treating you well}. I just {found|came across} something that made me think of you. It's an online business that's pretty {unique|different|one of a kind}. Honestly, I've never seen anything quite like it. Anyway, it looks like it could have some pretty {good|solid|great} potential so I wanted to reach out to see if you'd be open to taking a look?",
	"Hey {{first_name}}, hope you're having an {awesome|amazing|great} day! I just {saw|came across|found} a very unique {business project|project|business model} that made me think of you. {Who knows, maybe I'm crazy|Maybe it's a long shot}, but wanted to reach out just in case. Are you open to {checking out|exploring|looking at} any ways to {generate income|make money|create income} outside of what you're currently doing?",
	"Hey {{first_name}}, hope {all is good|everything's great|you're doing well}! {Random question|Quick question}. I just saw something that I'm pretty {excited|pumped} about. It's a business {project|model} that's {quite|pretty} unique. Wondering if you might be open to taking a look? No worries if not, just let me know. {Love to hear what you've been up to these days too|Would love to catch up too}!",
}

var sampleFriends = []model.Friend{
	{ID: "fb-1001", Name: "Sarah Mitchell", FirstName: "Sarah"},
	{ID: "fb-1002", Name: "James Odhiambo", FirstName: "James"},
	{ID: "fb-1003", Name: "Priya Patel", FirstName: "Priya"},
	{ID: "fb-1004", Name: "Miguel Santos", FirstName: "Miguel"},
	{ID: "fb-1005", Name: "Emma Larsen", FirstName: "Emma"},
	{ID: "fb-1006", Name: "David Kim", FirstName: "David"},
	{ID: "fb-1007", Name: "Aisha Bello", FirstName: "Aisha"},
	{ID: "fb-1008", Name: "Tom Walker", FirstName: "Tom"},
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("[SEEDER] db open failed: %v", err)
	}
	defer database.Close()

	for _, f := range sampleFriends {
		_, err := database.Exec(`
            INSERT INTO friends (id, name, first_name, profile_photo_url)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING
        `, f.ID, f.Name, f.FirstName, f.ProfilePhotoURL)
		if err != nil {
			logrus.Fatalf("[SEEDER] friend insert failed: %v", err)
		}
	}
	logrus.Infof("[SEEDER] seeded %d friends", len(sampleFriends))

	var existing int
	if err := database.QueryRow(`SELECT COUNT(*) FROM message_templates`).Scan(&existing); err != nil {
		logrus.Fatalf("[SEEDER] template count failed: %v", err)
	}
	if existing > 0 {
		logrus.Info("[SEEDER] templates already present, skipping")
		return
	}

	body := strings.Join(stockVariations, "\n"+model.VariationSeparator+"\n")
	_, err = database.Exec(`
        INSERT INTO message_templates (id, name, body, created_at)
        VALUES ($1, $2, $3, NOW())
    `, uuid.NewString(), "Fast Start Invite", body)
	if err != nil {
		logrus.Fatalf("[SEEDER] template insert failed: %v", err)
	}
	logrus.Info("[SEEDER] seeded default invite template")
}
