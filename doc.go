/*
go-labelkit is the annotation engine behind a YOLO bounding box labelling
tool.  It keeps an undoable in-memory model of per-image boxes backed by
plain text label files, and converts raw output tensors from the YOLOv5,
YOLOv8/v11 and YOLOv26 model families into a filtered, de-duplicated set
of boxes for auto-annotation.

The root package holds the shared Box/Rect types, the pixel/normalized
coordinate codec and the class list loaders.  See the postprocess, store,
workspace, detector and dataset subpackages for the rest of the engine,
and cmd/labelkit for the command line front end.
*/
package labelkit
