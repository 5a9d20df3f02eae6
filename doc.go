/*
go-bartrack tracks user selected regions of a video frame by frame and hands
the tracked regions, plus the trajectory of their midpoint, to an overlay
renderer already scaled to view space.

A region is selected by dragging a rubber band over the first frame (see the
selector package), normalized into tracker space (unit square, origin bottom
left) and fed through a single object tracker engine for every frame decoded
from the video.  Each frame the region style follows the tracker confidence,
solid when above 0.5 and dashed otherwise.

The core packages (geometry, video, tracker, selector and this package) are
pure Go.  Concrete decode, tracking and drawing backends built on OpenCV live
in the opencv, preprocess and render packages, with a pure Go renderer in the
raster package.

See example code and usage in the example subdirectory.
*/
package bartrack
