// internal/borrowing/emails.go
package borrowing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfmark/internal/notify"
)

const mailSignature = "Thank you for using the library!\nConfucius Institute Library\nUniversity of Nairobi"

func borrowedEmail(to, name, title, author string, borrowedAt, dueDate time.Time, isStudent bool, ownerID, recordID uuid.UUID) notify.Email {
	if author == "" {
		author = "N/A"
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nYou have successfully borrowed the following book from the Confucius Institute Library:\n\nBook: %s\nAuthor: %s\nBorrow Date: %s\n",
		name, title, author, borrowedAt.Format("2006-01-02 15:04:05"),
	)
	if isStudent {
		body += fmt.Sprintf(
			"Due Date: %s\nMaximum Days Allowed: 4 days\n\nPlease return the book on or before the due date to avoid penalties.\n",
			dueDate.Format("2006-01-02"),
		)
	} else {
		body += "\nPlease return the book when you are done reading.\n"
	}
	body += "\n" + mailSignature

	return notify.Email{
		To:       to,
		Subject:  "Library Book Borrowed - " + title,
		Body:     body,
		Category: "borrowed",
		OwnerID:  ownerID,
		RecordID: recordID,
	}
}

func returnConfirmationEmail(to, name, title, author string, returnedAt time.Time, ownerID, recordID uuid.UUID) notify.Email {
	if author == "" {
		author = "N/A"
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nYou have successfully returned the book:\n\nBook: %s\nAuthor: %s\nReturned At: %s\n\n%s",
		name, title, author, returnedAt.Format("2006-01-02 15:04:05"), mailSignature,
	)
	return notify.Email{
		To:       to,
		Subject:  "Book Returned - " + title,
		Body:     body,
		Category: "return_confirmation",
		OwnerID:  ownerID,
		RecordID: recordID,
	}
}

func finePaidEmail(to, name, title string, amount int, paidAt time.Time, ownerID, recordID uuid.UUID) notify.Email {
	body := fmt.Sprintf(
		"Dear %s,\n\nYou have successfully paid a fine of KES %d for late return.\nBook: %s\nPaid At: %s\n\n%s",
		name, amount, title, paidAt.Format("2006-01-02 15:04:05"), mailSignature,
	)
	return notify.Email{
		To:       to,
		Subject:  "Book Returned & Fine Paid - " + title,
		Body:     body,
		Category: "return_and_fine_paid",
		OwnerID:  ownerID,
		RecordID: recordID,
	}
}

func dueReminderEmail(to, name, title string, dueDate time.Time, ownerID, recordID uuid.UUID) notify.Email {
	body := fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder that the following book is due soon:\n\nBook: %s\nDue Date: %s\n\nPlease return the book on or before the due date to avoid a fine of KES %d per day.\n\n%s",
		name, title, dueDate.Format("2006-01-02"), DailyFineRate, mailSignature,
	)
	return notify.Email{
		To:       to,
		Subject:  "Due Date Reminder - " + title,
		Body:     body,
		Category: "due_reminder",
		OwnerID:  ownerID,
		RecordID: recordID,
	}
}

func overdueNoticeEmail(to, name, title string, daysOverdue, accrued int, ownerID, recordID uuid.UUID) notify.Email {
	body := fmt.Sprintf(
		"Dear %s,\n\nThe following book is overdue:\n\nBook: %s\nDays Overdue: %d\nFine Accrued So Far: KES %d\n\nPlease return the book as soon as possible; the fine grows by KES %d each day.\n\n%s",
		name, title, daysOverdue, accrued, DailyFineRate, mailSignature,
	)
	return notify.Email{
		To:       to,
		Subject:  "Overdue Book Notice - " + title,
		Body:     body,
		Category: "overdue_notice",
		OwnerID:  ownerID,
		RecordID: recordID,
	}
}
