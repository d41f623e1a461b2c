package lmstest

// Entities wraps items in the EntityArray envelope of list endpoints.
func Entities(items ...map[string]any) map[string]any {
	if items == nil {
		items = []map[string]any{}
	}
	return map[string]any{"EntityArray": items, "Total": len(items)}
}

func Profile() map[string]any {
	return map[string]any{
		"PersonId":        PersonID,
		"FirstName":       "Ada",
		"LastName":        "Lovelace",
		"Language":        "en-GB",
		"ProfileImageUrl": "https://cdn.example/ada.png",
		"iCalUrl":         "https://calendar.example/ada.ics",
	}
}

func Course(id int, title string) map[string]any {
	return map[string]any{
		"CourseId":              id,
		"Title":                 title,
		"LastUpdatedUtc":        "2024-03-01T10:00:00Z",
		"NewNotificationsCount": 2,
		"NewBulletinsCount":     1,
		"Url":                   "https://lms.example/course/" + title,
		"CourseColor":           "#336699",
	}
}

func Task(id int, title, course string) map[string]any {
	return map[string]any{
		"TaskId":        id,
		"Title":         title,
		"Description":   "Hand in " + title,
		"LocationTitle": course,
		"Status":        "NotStarted",
		"Deadline":      "2024-04-01T23:59:00Z",
		"Url":           "https://lms.example/task/" + title,
		"ContentUrl":    "https://lms.example/content/" + title,
		"IconUrl":       "https://lms.example/icon.png",
		"ElementId":     id * 10,
		"ElementType":   "Assignment",
	}
}

func Person(id int) map[string]any {
	return map[string]any{
		"PersonId":        id,
		"FirstName":       "Grace",
		"LastName":        "Hopper",
		"ProfileUrl":      "https://lms.example/person/grace",
		"ProfileImageUrl": "https://cdn.example/grace.png",
	}
}

func Notification(id int) map[string]any {
	return map[string]any{
		"NotificationId": id,
		"Text":           "New grade published",
		"PublishedDate":  "2024-03-02T08:00:00Z",
		"PublishedBy":    Person(31),
		"Type":           "Assessment",
		"Url":            "https://lms.example/notification/1",
		"ContentUrl":     "https://lms.example/content/1",
		"IsRead":         false,
	}
}

func Message(id, threadID int, attachment bool) map[string]any {
	m := map[string]any{
		"MessageId":       id,
		"MessageThreadId": threadID,
		"Created":         "2024-03-03T12:00:00Z",
		"CreatedBy":       31,
		"CreatedByName":   "Grace Hopper",
		"CreatedByAvatar": "https://cdn.example/grace.png",
		"Text":            "See you tomorrow",
	}
	if attachment {
		m["AttachmentUrl"] = "https://lms.example/files/notes.pdf"
		m["AttachmentName"] = "notes.pdf"
	}
	return m
}

func Thread(id int) map[string]any {
	return map[string]any{
		"InstantMessageThreadId":   id,
		"Name":                     "Study group",
		"Created":                  "2024-03-01T09:00:00Z",
		"Type":                     "Group",
		"Messages":                 Entities(Message(100, id, true), Message(101, id, false)),
		"LastMessage":              Message(101, id, false),
		"MatchingMessageIds":       []int{100},
		"Participants":             []map[string]any{Person(31), Person(PersonID)},
		"LastReadInstantMessageId": 100,
	}
}

// News returns a notification stream entity, with a bulletin when withBulletin is set.
func News(id int, withBulletin bool) map[string]any {
	n := map[string]any{
		"NotificationId": id,
		"LocationTitle":  "Mathematics",
		"Text":           "Exam moved",
		"PublishedDate":  "2024-03-04T07:30:00Z",
		"PublishedBy":    Person(31),
		"ElementType":    "LightBulletin",
		"Url":            "https://lms.example/news/1",
		"ContentUrl":     "https://lms.example/bulletin/1",
	}
	if withBulletin {
		n["LightBulletin"] = map[string]any{
			"LightBulletinId": 55,
			"Text":            "The exam is now on Friday.",
		}
	}
	return n
}
