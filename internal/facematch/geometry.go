package facematch

import "github.com/kozaktomas/face-recognizer/internal/database"

// ComputeIoU calculates Intersection over Union between two bounding boxes.
// bbox1 and bbox2 are [x1, y1, x2, y2] in the same coordinate system.
func ComputeIoU(bbox1, bbox2 []float64) float64 {
	if len(bbox1) != 4 || len(bbox2) != 4 {
		return 0
	}

	// Calculate intersection.
	x1 := max(bbox1[0], bbox2[0])
	y1 := max(bbox1[1], bbox2[1])
	x2 := min(bbox1[2], bbox2[2])
	y2 := min(bbox1[3], bbox2[3])

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)

	// Calculate union.
	area1 := (bbox1[2] - bbox1[0]) * (bbox1[3] - bbox1[1])
	area2 := (bbox2[2] - bbox2[0]) * (bbox2[3] - bbox2[1])
	union := area1 + area2 - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// BestOverlap returns the index of the face whose box overlaps target the most
// and that overlap. Returns -1 if no face reaches minIoU.
func BestOverlap(target []float64, faces []database.FaceDetection, minIoU float64) (int, float64) {
	best := -1
	bestIoU := 0.0
	for i := range faces {
		iou := ComputeIoU(target, faces[i].BBox)
		if iou > bestIoU {
			bestIoU = iou
			best = i
		}
	}
	if best < 0 || bestIoU < minIoU {
		return -1, bestIoU
	}
	return best, bestIoU
}

// ExpandBBox grows a [x1, y1, x2, y2] box by margin (fraction of its size) on every
// side and clips it to a width x height image.
func ExpandBBox(bbox []float64, margin float64, width, height int) []float64 {
	if len(bbox) != 4 {
		return bbox
	}
	dx := (bbox[2] - bbox[0]) * margin
	dy := (bbox[3] - bbox[1]) * margin
	return []float64{
		max(0, bbox[0]-dx),
		max(0, bbox[1]-dy),
		min(float64(width), bbox[2]+dx),
		min(float64(height), bbox[3]+dy),
	}
}

// ValidBBox reports whether bbox is a non-empty [x1, y1, x2, y2] box.
func ValidBBox(bbox []float64) bool {
	return len(bbox) == 4 && bbox[2] > bbox[0] && bbox[3] > bbox[1]
}
