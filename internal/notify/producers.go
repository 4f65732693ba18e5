package notify

import (
	"fmt"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// The constructors below build the notifications emitted by the project,
// task and review flows.

func TaskAssigned(recipient, assigner, taskTitle, projectID string) *models.Notification {
	return &models.Notification{
		RecipientID: recipient,
		SenderID:    assigner,
		Type:        models.NotifyTaskAssigned,
		Message:     fmt.Sprintf("You have been assigned a new task: %s", taskTitle),
		Link:        projectLink(projectID),
	}
}

// JoinRequested tells a project owner that requester wants to join.
func JoinRequested(owner, requester, requesterName, projectTitle, projectID string) *models.Notification {
	return &models.Notification{
		RecipientID: owner,
		SenderID:    requester,
		Type:        models.NotifyProjectRequest,
		Message:     fmt.Sprintf("%s requested to join %s", requesterName, projectTitle),
		Link:        projectLink(projectID),
	}
}

// JoinDecided tells a requester whether the owner accepted them.
func JoinDecided(requester, owner, projectTitle, projectID string, accepted bool) *models.Notification {
	verdict := "rejected"
	if accepted {
		verdict = "accepted"
	}
	return &models.Notification{
		RecipientID: requester,
		SenderID:    owner,
		Type:        models.NotifyProjectRequest,
		Message:     fmt.Sprintf("Your request to join %s was %s", projectTitle, verdict),
		Link:        projectLink(projectID),
	}
}

func ProjectInvite(invitee, owner, projectTitle, projectID string) *models.Notification {
	return &models.Notification{
		RecipientID: invitee,
		SenderID:    owner,
		Type:        models.NotifyProjectInvite,
		Message:     fmt.Sprintf("You have been invited to join %s", projectTitle),
		Link:        projectLink(projectID),
	}
}

func ReviewReceived(reviewee, reviewer string, rating int) *models.Notification {
	return &models.Notification{
		RecipientID: reviewee,
		SenderID:    reviewer,
		Type:        models.NotifyReviewReceived,
		Message:     fmt.Sprintf("You received a new %d-star review", rating),
		Link:        "/profile/" + reviewee,
	}
}

func System(recipient, message, link string) *models.Notification {
	return &models.Notification{
		RecipientID: recipient,
		Type:        models.NotifySystem,
		Message:     message,
		Link:        link,
	}
}

func projectLink(projectID string) string {
	if projectID == "" {
		return ""
	}
	return "/projects/" + projectID
}
