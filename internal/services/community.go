package services

import (
	"errors"
	"fmt"
	"strings"

	"siif/internal/models"
	"siif/internal/utils"

	"gorm.io/gorm"
)

var (
	ErrCreatorCannotLeave = errors.New("o criador não pode sair da comunidade")
	ErrNotMember          = errors.New("o usuário não é membro da comunidade")
	ErrAlreadyMember      = errors.New("você já é membro desta comunidade")
	ErrRequestPending     = errors.New("sua solicitação já está pendente")
	ErrCommunityExists    = errors.New("já existe uma comunidade com este nome")
	ErrLastModerator      = errors.New("a comunidade precisa de pelo menos um moderador")
)

func inJoinTable(tx *gorm.DB, table string, communityID, userID uint) bool {
	var count int64
	tx.Table(table).Where("community_id = ? AND user_id = ?", communityID, userID).Count(&count)
	return count > 0
}

const (
	membersTable    = "community_members"
	moderatorsTable = "community_moderators"
)

func addJoin(tx *gorm.DB, table string, communityID, userID uint) error {
	return tx.Exec("INSERT INTO "+table+" (community_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING", communityID, userID).Error
}

func removeJoin(tx *gorm.DB, table string, communityID, userID uint) error {
	return tx.Exec("DELETE FROM "+table+" WHERE community_id = ? AND user_id = ?", communityID, userID).Error
}

func IsMember(tx *gorm.DB, communityID, userID uint) bool {
	return inJoinTable(tx, membersTable, communityID, userID)
}

func IsModerator(tx *gorm.DB, communityID, userID uint) bool {
	return inJoinTable(tx, moderatorsTable, communityID, userID)
}

// CanModerate is true for admins and moderators of the community.
func CanModerate(tx *gorm.DB, user *models.User, communityID *uint) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return communityID != nil && IsModerator(tx, *communityID, user.ID)
}

// CanView hides restricted communities from non-members.
func CanView(tx *gorm.DB, user *models.User, community *models.Community) bool {
	if community == nil || !community.IsRestricted() {
		return true
	}
	if user == nil {
		return false
	}
	return user.IsAdmin || IsMember(tx, community.ID, user.ID)
}

func MemberCount(tx *gorm.DB, communityID uint) int {
	var count int64
	tx.Table(membersTable).Where("community_id = ?", communityID).Count(&count)
	return int(count)
}

// CreateCommunity makes the creator the first member and moderator.
func CreateCommunity(tx *gorm.DB, name, description, kind string, creator *models.User) (*models.Community, error) {
	name = strings.TrimSpace(name)
	if kind != models.CommunityRestricted {
		kind = models.CommunityPublic
	}

	var count int64
	tx.Model(&models.Community{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count)
	if count > 0 {
		return nil, ErrCommunityExists
	}

	base := utils.Slugify(name)
	if base == "" {
		base = "comunidade"
	}
	slug := base
	for i := 2; ; i++ {
		tx.Model(&models.Community{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	community := &models.Community{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(description),
		Type:        kind,
		CreatorID:   creator.ID,
	}
	if err := tx.Create(community).Error; err != nil {
		return nil, err
	}
	if err := addJoin(tx, membersTable, community.ID, creator.ID); err != nil {
		return nil, err
	}
	if err := addJoin(tx, moderatorsTable, community.ID, creator.ID); err != nil {
		return nil, err
	}
	return community, nil
}

// JoinCommunity adds the user to a public community, or files a request
// for a restricted one and tells the moderators. pending reports which.
func JoinCommunity(tx *gorm.DB, community *models.Community, user *models.User) (pending bool, err error) {
	if IsMember(tx, community.ID, user.ID) {
		return false, ErrAlreadyMember
	}
	if !community.IsRestricted() {
		return false, addJoin(tx, membersTable, community.ID, user.ID)
	}

	var count int64
	tx.Model(&models.CommunityRequest{}).Where("community_id = ? AND user_id = ?", community.ID, user.ID).Count(&count)
	if count > 0 {
		return true, ErrRequestPending
	}
	if err := tx.Create(&models.CommunityRequest{CommunityID: community.ID, UserID: user.ID}).Error; err != nil {
		return false, err
	}
	msg := fmt.Sprintf("%s pediu para entrar em %s.", user.DisplayName(), community.Name)
	if _, err := NotifyModerators(tx, community.ID, msg, "/c/"+community.Slug); err != nil {
		return false, err
	}
	return true, nil
}

func LeaveCommunity(tx *gorm.DB, community *models.Community, user *models.User) error {
	if community.CreatorID == user.ID {
		return ErrCreatorCannotLeave
	}
	if !IsMember(tx, community.ID, user.ID) {
		return ErrNotMember
	}
	if err := removeJoin(tx, moderatorsTable, community.ID, user.ID); err != nil {
		return err
	}
	return removeJoin(tx, membersTable, community.ID, user.ID)
}

// ResolveRequest approves or rejects a pending join request and notifies the requester.
func ResolveRequest(tx *gorm.DB, community *models.Community, requestID uint, approve bool) (*models.CommunityRequest, error) {
	var req models.CommunityRequest
	if err := tx.Where("id = ? AND community_id = ?", requestID, community.ID).First(&req).Error; err != nil {
		return nil, err
	}
	if approve {
		if err := addJoin(tx, membersTable, community.ID, req.UserID); err != nil {
			return nil, err
		}
	}
	if err := tx.Delete(&req).Error; err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Sua solicitação para entrar em %s foi recusada.", community.Name)
	if approve {
		msg = fmt.Sprintf("Você agora é membro de %s.", community.Name)
	}
	if err := Notify(tx, req.UserID, msg, "/c/"+community.Slug); err != nil {
		return nil, err
	}
	return &req, nil
}

func AddModerator(tx *gorm.DB, community *models.Community, userID uint) error {
	if !IsMember(tx, community.ID, userID) {
		return ErrNotMember
	}
	if err := addJoin(tx, moderatorsTable, community.ID, userID); err != nil {
		return err
	}
	return Notify(tx, userID, fmt.Sprintf("Você agora é moderador de %s.", community.Name), "/c/"+community.Slug)
}

func RemoveModerator(tx *gorm.DB, community *models.Community, userID uint) error {
	var count int64
	tx.Table(moderatorsTable).Where("community_id = ?", community.ID).Count(&count)
	if count <= 1 && IsModerator(tx, community.ID, userID) {
		return ErrLastModerator
	}
	return removeJoin(tx, moderatorsTable, community.ID, userID)
}
