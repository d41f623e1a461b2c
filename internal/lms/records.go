package lms

// OrganisationMatch is one hit of a directory search.
type OrganisationMatch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Profile identifies the user behind a Session.
type Profile struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Language     string `json:"language"`
	ProfileImage string `json:"profileImage"`
	CalendarURL  string `json:"calendarUrl"`
}

type Course struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Updated           string `json:"updated"`
	NotificationCount int    `json:"notificationCount"`
	NewsCount         int    `json:"newsCount"`
	URL               string `json:"url"`
	Color             string `json:"color"`
}

type Task struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CourseName  string `json:"courseName"`
	Status      string `json:"status"`
	Deadline    string `json:"deadline"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Icon        string `json:"icon"`
	ElementID   int64  `json:"elementId"`
	Type        string `json:"type"`
}

// Person is an author or participant, denormalized into the record that
// references it.
type Person struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Profile      string `json:"profile"`
	ProfileImage string `json:"profileImage"`
}

type Notification struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Date    string `json:"date"`
	Author  Person `json:"author"`
	Type    string `json:"type"`
	URL     string `json:"url"`
	Content string `json:"content"`
	IsRead  bool   `json:"isRead"`
}

type MessageAuthor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type Message struct {
	ID         int64         `json:"id"`
	ThreadID   int64         `json:"threadId"`
	Created    string        `json:"created"`
	Author     MessageAuthor `json:"author"`
	Text       string        `json:"text"`
	Attachment *Attachment   `json:"attachment"`
}

type Thread struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Created           string    `json:"created"`
	Type              string    `json:"type"`
	Messages          []Message `json:"messages"`
	LastMessage       Message   `json:"lastMessage"`
	MatchedMessageIDs []int64   `json:"matchedMessageIds"`
	Participants      []Person  `json:"participants"`
	LastReadMessageID int64     `json:"lastReadMessageId"`
}

// NewsContents is the bulletin attached to a news item. ID and Text are nil
// when the item carries no bulletin; URL is always set.
type NewsContents struct {
	ID   *int64  `json:"id"`
	Text *string `json:"text"`
	URL  string  `json:"url"`
}

type NewsItem struct {
	ID       int64        `json:"id"`
	Location string       `json:"location"`
	Text     string       `json:"text"`
	Date     string       `json:"date"`
	Author   Person       `json:"author"`
	Type     string       `json:"type"`
	URL      string       `json:"url"`
	Contents NewsContents `json:"contents"`
}

// ThreadOptions selects message threads. Zero fields take the defaults:
// 10 threads, page 0, 20 messages per thread, no search text.
type ThreadOptions struct {
	MaxThreadCount int
	Query          string
	PageIndex      int
	PageSize       int
}

func (o ThreadOptions) withDefaults() ThreadOptions {
	if o.MaxThreadCount == 0 {
		o.MaxThreadCount = 10
	}
	if o.PageSize == 0 {
		o.PageSize = 20
	}
	return o
}
