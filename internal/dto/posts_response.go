package dto

type LikeResponse struct {
	PostID  int64 `json:"post_id"`
	IsLiked bool  `json:"is_liked"`
	Likes   int64 `json:"likes"`
}

type SaveResponse struct {
	PostID  int64 `json:"post_id"`
	IsSaved bool  `json:"is_saved"`
}
