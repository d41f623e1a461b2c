package lms

func parseProfile(e entity) (Profile, error) {
	var p Profile
	f := e.fields("person")
	f.get("PersonId", &p.ID)
	f.get("FirstName", &p.FirstName)
	f.get("LastName", &p.LastName)
	f.get("Language", &p.Language)
	f.get("ProfileImageUrl", &p.ProfileImage)
	f.get("iCalUrl", &p.CalendarURL)
	return p, f.err
}

func parseCourse(e entity) (Course, error) {
	var c Course
	f := e.fields("course")
	f.get("CourseId", &c.ID)
	f.get("Title", &c.Name)
	f.get("LastUpdatedUtc", &c.Updated)
	f.get("NewNotificationsCount", &c.NotificationCount)
	f.get("NewBulletinsCount", &c.NewsCount)
	f.get("Url", &c.URL)
	f.get("CourseColor", &c.Color)
	return c, f.err
}

func parseTask(e entity) (Task, error) {
	var t Task
	f := e.fields("task")
	f.get("TaskId", &t.ID)
	f.get("Title", &t.Name)
	f.get("Description", &t.Description)
	f.get("LocationTitle", &t.CourseName)
	f.get("Status", &t.Status)
	f.get("Deadline", &t.Deadline)
	f.get("Url", &t.URL)
	f.get("ContentUrl", &t.Content)
	f.get("IconUrl", &t.Icon)
	f.get("ElementId", &t.ElementID)
	f.get("ElementType", &t.Type)
	return t, f.err
}

func parsePerson(e entity, kind string) (Person, error) {
	var p Person
	f := e.fields(kind)
	f.get("PersonId", &p.ID)
	f.get("FirstName", &p.FirstName)
	f.get("LastName", &p.LastName)
	f.get("ProfileUrl", &p.Profile)
	f.get("ProfileImageUrl", &p.ProfileImage)
	return p, f.err
}

func parseNotification(e entity) (Notification, error) {
	var n Notification
	f := e.fields("notification")
	f.get("NotificationId", &n.ID)
	f.get("Text", &n.Text)
	f.get("PublishedDate", &n.Date)
	if author := f.object("PublishedBy"); author != nil {
		p, err := parsePerson(author, "notification.PublishedBy")
		f.fail(err)
		n.Author = p
	}
	f.get("Type", &n.Type)
	f.get("Url", &n.URL)
	f.get("ContentUrl", &n.Content)
	f.get("IsRead", &n.IsRead)
	return n, f.err
}

func parseMessage(e entity) (Message, error) {
	var m Message
	f := e.fields("message")
	f.get("MessageId", &m.ID)
	f.get("MessageThreadId", &m.ThreadID)
	f.get("Created", &m.Created)
	f.get("CreatedBy", &m.Author.ID)
	f.get("CreatedByName", &m.Author.Name)
	f.get("CreatedByAvatar", &m.Author.ProfileImage)
	f.get("Text", &m.Text)
	if f.present("AttachmentUrl") {
		var a Attachment
		f.get("AttachmentUrl", &a.URL)
		if a.URL != "" {
			f.get("AttachmentName", &a.Name)
			m.Attachment = &a
		}
	}
	return m, f.err
}

func parseThread(e entity) (Thread, error) {
	var t Thread
	f := e.fields("thread")
	f.get("InstantMessageThreadId", &t.ID)
	f.get("Name", &t.Name)
	f.get("Created", &t.Created)
	f.get("Type", &t.Type)

	if messages := f.object("Messages"); messages != nil {
		var items []entity
		mf := messages.fields("thread.Messages")
		mf.get("EntityArray", &items)
		f.fail(mf.err)
		t.Messages = make([]Message, 0, len(items))
		for _, item := range items {
			m, err := parseMessage(item)
			f.fail(err)
			t.Messages = append(t.Messages, m)
		}
	}
	if last := f.object("LastMessage"); last != nil {
		m, err := parseMessage(last)
		f.fail(err)
		t.LastMessage = m
	}

	f.get("MatchingMessageIds", &t.MatchedMessageIDs)

	var participants []entity
	f.get("Participants", &participants)
	t.Participants = make([]Person, 0, len(participants))
	for _, item := range participants {
		p, err := parsePerson(item, "thread.Participants")
		f.fail(err)
		t.Participants = append(t.Participants, p)
	}

	f.get("LastReadInstantMessageId", &t.LastReadMessageID)
	return t, f.err
}

func parseNewsItem(e entity) (NewsItem, error) {
	var n NewsItem
	f := e.fields("news")
	f.get("NotificationId", &n.ID)
	f.get("LocationTitle", &n.Location)
	f.get("Text", &n.Text)
	f.get("PublishedDate", &n.Date)
	if author := f.object("PublishedBy"); author != nil {
		p, err := parsePerson(author, "news.PublishedBy")
		f.fail(err)
		n.Author = p
	}
	f.get("ElementType", &n.Type)
	f.get("Url", &n.URL)

	if f.present("LightBulletin") {
		bulletin := f.object("LightBulletin")
		bf := bulletin.fields("news.LightBulletin")
		var id int64
		var text string
		bf.get("LightBulletinId", &id)
		bf.get("Text", &text)
		f.fail(bf.err)
		n.Contents.ID, n.Contents.Text = &id, &text
	}
	f.get("ContentUrl", &n.Contents.URL)
	return n, f.err
}

// parseAll maps every entity with parse, stopping at the first error.
func parseAll[T any](items []entity, parse func(entity) (T, error)) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := parse(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
