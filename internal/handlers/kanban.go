package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/middleware"
	"siif/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type KanbanHandler struct{}

func NewKanbanHandler() *KanbanHandler {
	return &KanbanHandler{}
}

// KanbanColumn is one column of the rendered board.
type KanbanColumn struct {
	Key   string
	Label string
	Tasks []models.KanbanTask
}

var kanbanLabels = map[string]string{
	models.KanbanTodo:  "A fazer",
	models.KanbanDoing: "Fazendo",
	models.KanbanDone:  "Concluído",
}

func buildBoard(tasks []models.KanbanTask) []KanbanColumn {
	board := make([]KanbanColumn, len(models.KanbanColumns))
	index := make(map[string]int, len(models.KanbanColumns))
	for i, key := range models.KanbanColumns {
		board[i] = KanbanColumn{Key: key, Label: kanbanLabels[key]}
		index[key] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Column]
		if !ok {
			i = 0
		}
		board[i].Tasks = append(board[i].Tasks, t)
	}
	return board
}

func (h *KanbanHandler) Board(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var tasks []models.KanbanTask
	db.DB.Where("owner_id = ?", user.ID).Order("position ASC, id ASC").Find(&tasks)

	Render(c, http.StatusOK, "kanban.html", gin.H{
		"Title":  "Kanban",
		"Board":  buildBoard(tasks),
		"Active": "kanban",
	})
}

// kanbanReply answers HTMX/AJAX with JSON and plain forms with a redirect.
func kanbanReply(c *gin.Context, code int, body gin.H) {
	if isHTMX(c) || strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.JSON(code, body)
		return
	}
	if msg, ok := body["erro"].(string); ok {
		Flash(c, "danger", msg)
	}
	c.Redirect(http.StatusFound, "/kanban")
}

func (h *KanbanHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form KanbanForm
	if err := c.ShouldBind(&form); err != nil {
		kanbanReply(c, http.StatusBadRequest, gin.H{"erro": validationMessage(err)})
		return
	}
	column := form.Column
	if column == "" {
		column = models.KanbanTodo
	}

	task := models.KanbanTask{
		OwnerID:     user.ID,
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		Column:      column,
	}
	if form.DueDate != "" {
		if due, err := time.ParseInLocation("2006-01-02", form.DueDate, time.Local); err == nil {
			task.DueDate = &due
		}
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var maxPos *int
		tx.Model(&models.KanbanTask{}).Where("owner_id = ? AND status = ?", user.ID, column).
			Select("MAX(position)").Scan(&maxPos)
		if maxPos != nil {
			task.Position = *maxPos + 1
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		log.Printf("Create kanban task failed: %v", err)
		kanbanReply(c, http.StatusInternalServerError, gin.H{"erro": "Não foi possível criar a tarefa."})
		return
	}
	kanbanReply(c, http.StatusCreated, gin.H{"msg": "Tarefa criada", "task": task})
}

func ownTask(c *gin.Context, user *models.User) (*models.KanbanTask, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		kanbanReply(c, http.StatusNotFound, gin.H{"erro": "Tarefa não encontrada."})
		return nil, false
	}
	var task models.KanbanTask
	if err := db.DB.First(&task, id).Error; err != nil {
		kanbanReply(c, http.StatusNotFound, gin.H{"erro": "Tarefa não encontrada."})
		return nil, false
	}
	if task.OwnerID != user.ID {
		kanbanReply(c, http.StatusForbidden, gin.H{"erro": "Esta tarefa não é sua."})
		return nil, false
	}
	return &task, true
}

// Move puts the task at position in column and renumbers both columns.
func (h *KanbanHandler) Move(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	task, ok := ownTask(c, user)
	if !ok {
		return
	}

	var form KanbanMoveForm
	if err := c.ShouldBind(&form); err != nil {
		kanbanReply(c, http.StatusBadRequest, gin.H{"erro": validationMessage(err)})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var others []models.KanbanTask
		if err := tx.Where("owner_id = ? AND status = ? AND id <> ?", user.ID, form.Column, task.ID).
			Order("position ASC, id ASC").Find(&others).Error; err != nil {
			return err
		}
		pos := form.Position
		if pos > len(others) {
			pos = len(others)
		}
		ordered := make([]models.KanbanTask, 0, len(others)+1)
		ordered = append(ordered, others[:pos]...)
		ordered = append(ordered, *task)
		ordered = append(ordered, others[pos:]...)
		for i, t := range ordered {
			if err := tx.Model(&models.KanbanTask{}).Where("id = ?", t.ID).
				Updates(map[string]interface{}{"status": form.Column, "position": i}).Error; err != nil {
				return err
			}
		}

		if task.Column != form.Column {
			var left []models.KanbanTask
			if err := tx.Where("owner_id = ? AND status = ?", user.ID, task.Column).
				Order("position ASC, id ASC").Find(&left).Error; err != nil {
				return err
			}
			for i, t := range left {
				if err := tx.Model(&models.KanbanTask{}).Where("id = ?", t.ID).Update("position", i).Error; err != nil {
					return err
				}
			}
		}
		task.Column, task.Position = form.Column, pos
		return nil
	})
	if err != nil {
		log.Printf("Move kanban task failed: %v", err)
		kanbanReply(c, http.StatusInternalServerError, gin.H{"erro": "Não foi possível mover a tarefa."})
		return
	}
	kanbanReply(c, http.StatusOK, gin.H{"msg": "Tarefa movida", "task": task})
}

func (h *KanbanHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	task, ok := ownTask(c, user)
	if !ok {
		return
	}
	if err := db.DB.Delete(task).Error; err != nil {
		kanbanReply(c, http.StatusInternalServerError, gin.H{"erro": "Não foi possível excluir a tarefa."})
		return
	}
	kanbanReply(c, http.StatusOK, gin.H{"msg": "Tarefa excluída"})
}
