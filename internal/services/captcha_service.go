package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaSessionKey is where handlers keep the expected answer.
const CaptchaSessionKey = "captcha_answer"

type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateMathProblem returns a question such as "3 + 5" and its answer.
// Subtractions never go negative.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a, b, op := s.rnd.Intn(10), s.rnd.Intn(10), s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// Verify compares the user's answer with the stored one.
func (s *CaptchaService) Verify(answer string, expected interface{}) bool {
	want, ok := expected.(int)
	if !ok {
		return false
	}
	got, err := strconv.Atoi(strings.TrimSpace(answer))
	return err == nil && got == want
}
