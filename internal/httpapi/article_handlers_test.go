package httpapi

import (
	"testing"

	"horse.fit/newsdesk/internal/auth"
	"horse.fit/newsdesk/internal/db"
)

func TestCanEditArticle(t *testing.T) {
	t.Parallel()

	editor := authPrincipal{UserID: 1, Role: auth.RoleEditor}
	author := authPrincipal{UserID: 2, Role: auth.RoleAuthor}
	otherAuthor := authPrincipal{UserID: 3, Role: auth.RoleAuthor}

	ownDraft := &db.ArticleRecord{AuthorID: 2, Status: db.ArticleStatusDraft}
	ownPublished := &db.ArticleRecord{AuthorID: 2, Status: db.ArticleStatusPublished}

	if !canEditArticle(editor, ownPublished) {
		t.Fatalf("editors should edit any article")
	}
	if !canEditArticle(author, ownDraft) {
		t.Fatalf("authors should edit their own drafts")
	}
	if canEditArticle(author, ownPublished) {
		t.Fatalf("authors should not edit their own published articles")
	}
	if canEditArticle(otherAuthor, ownDraft) {
		t.Fatalf("authors should not edit someone else's draft")
	}
}

func TestCanTransitionArticle(t *testing.T) {
	t.Parallel()

	author := authPrincipal{UserID: 2, Role: auth.RoleAuthor}
	editor := authPrincipal{UserID: 1, Role: auth.RoleEditor}
	ownDraft := &db.ArticleRecord{AuthorID: 2, Status: db.ArticleStatusDraft}

	if !canTransitionArticle(author, ownDraft, db.ArticleStatusReview) {
		t.Fatalf("authors should submit their own drafts for review")
	}
	if canTransitionArticle(author, ownDraft, db.ArticleStatusPublished) {
		t.Fatalf("authors should not publish")
	}
	if !canTransitionArticle(editor, ownDraft, db.ArticleStatusPublished) {
		t.Fatalf("editors should publish")
	}
	if canTransitionArticle(authPrincipal{UserID: 9, Role: auth.RoleAuthor}, ownDraft, db.ArticleStatusReview) {
		t.Fatalf("authors should not move someone else's draft")
	}
}

func TestCanViewArticle(t *testing.T) {
	t.Parallel()

	article := &db.ArticleRecord{AuthorID: 2, Status: db.ArticleStatusDraft}

	if !canViewArticle(authPrincipal{UserID: 2, Role: auth.RoleAuthor}, article) {
		t.Fatalf("authors should view their own articles")
	}
	if canViewArticle(authPrincipal{UserID: 5, Role: auth.RoleAuthor}, article) {
		t.Fatalf("authors should not view someone else's draft")
	}
	if !canViewArticle(authPrincipal{UserID: 5, Role: auth.RoleAdmin}, article) {
		t.Fatalf("admins should view anything")
	}
}
