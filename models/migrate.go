package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&UserProgression{},
		&Profile{},
		&Post{},
		&Like{},
		&Retweet{},
		&Comment{},
		&AwardTracking{},
		&Notification{},
		&NotificationTemplate{},
		&Story{},
	}
}
